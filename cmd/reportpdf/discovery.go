package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Sentinel errors for file discovery.
var (
	ErrNoInput          = errors.New("no input specified")
	ErrNoReports        = errors.New("no report files found")
	ErrInvalidExtension = errors.New("file must have .md, .markdown or .txt extension")
)

// reportExtensions are the source extensions picked up from directories.
var reportExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
	".txt":      true,
}

// ReportFile is a single report to render.
type ReportFile struct {
	InputPath  string
	OutputPath string
}

// discoverFiles expands every input into report files. Files are taken as
// given when their extension is known; directories are walked recursively.
func discoverFiles(inputs []string, output string) ([]ReportFile, error) {
	if len(inputs) == 0 {
		return nil, ErrNoInput
	}

	var files []ReportFile
	for _, input := range inputs {
		found, err := discoverInput(input, output)
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoReports, strings.Join(inputs, ", "))
	}
	if len(files) > 1 && isPDFPath(output) {
		return nil, fmt.Errorf("%w: output %s is a file but %d reports were found", ErrUsage, output, len(files))
	}
	return files, nil
}

func discoverInput(inputPath, output string) ([]ReportFile, error) {
	info, err := os.Stat(inputPath)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		if err := validateReportExtension(inputPath); err != nil {
			return nil, err
		}
		return []ReportFile{{InputPath: inputPath, OutputPath: resolveOutputPath(inputPath, output, "")}}, nil
	}

	var files []ReportFile
	err = filepath.WalkDir(inputPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("scanning %s: %w", path, err)
		}
		if d.IsDir() || !reportExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		files = append(files, ReportFile{InputPath: path, OutputPath: resolveOutputPath(path, output, inputPath)})
		return nil
	})
	return files, err
}

// resolveOutputPath determines the PDF output path for a report file.
// Without an output, the PDF lands next to its source. Directory inputs keep
// their relative layout under the output directory.
func resolveOutputPath(inputPath, output, baseInputDir string) string {
	ext := filepath.Ext(inputPath)
	base := strings.TrimSuffix(filepath.Base(inputPath), ext)

	if output == "" {
		return filepath.Join(filepath.Dir(inputPath), base+".pdf")
	}

	if isPDFPath(output) {
		return output
	}

	if baseInputDir != "" {
		if relPath, err := filepath.Rel(baseInputDir, inputPath); err == nil {
			return filepath.Join(output, filepath.Dir(relPath), base+".pdf")
		}
	}

	return filepath.Join(output, base+".pdf")
}

// validateReportExtension checks that an explicitly named file is a report.
func validateReportExtension(path string) error {
	ext := filepath.Ext(path)
	if !reportExtensions[strings.ToLower(ext)] {
		return fmt.Errorf("%w: got %q", ErrInvalidExtension, ext)
	}
	return nil
}

func isPDFPath(p string) bool {
	return strings.EqualFold(filepath.Ext(p), ".pdf")
}
