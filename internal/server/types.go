package server

// ReportRequest asks for a report. Text is rendered as is; otherwise Prompt
// is sent to the generator and its answer rendered.
type ReportRequest struct {
	Text   string `json:"text"`
	Prompt string `json:"prompt"`
	Title  string `json:"title"`
}

// ReportResponse describes a rendered report.
type ReportResponse struct {
	Filename  string `json:"filename"`
	URL       string `json:"url"`
	PageCount int    `json:"pageCount"`
	Tier      string `json:"tier"`
}

// TechniqueRequest names an attack technique.
type TechniqueRequest struct {
	TechniqueID string `json:"technique_id"`
}

// MessageResponse carries a human-readable status.
type MessageResponse struct {
	Message string `json:"message"`
}
