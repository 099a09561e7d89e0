package reportpdf

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// ---------------------------------------------------------------------------
// TestPageSettings_Validate
// ---------------------------------------------------------------------------

func TestPageSettings_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		page    *PageSettings
		wantErr error
	}{
		{name: "nil uses defaults", page: nil},
		{name: "defaults", page: DefaultPageSettings()},
		{name: "case insensitive", page: &PageSettings{Size: "A4", Orientation: "Landscape", Margin: 1}},
		{name: "margin at minimum", page: &PageSettings{Size: "legal", Orientation: "portrait", Margin: MinMargin}},
		{name: "margin at maximum", page: &PageSettings{Size: "legal", Orientation: "portrait", Margin: MaxMargin}},
		{name: "unknown size", page: &PageSettings{Size: "a3", Orientation: "portrait", Margin: 1}, wantErr: ErrInvalidPageSize},
		{name: "empty size", page: &PageSettings{Orientation: "portrait", Margin: 1}, wantErr: ErrInvalidPageSize},
		{name: "unknown orientation", page: &PageSettings{Size: "letter", Orientation: "sideways", Margin: 1}, wantErr: ErrInvalidOrientation},
		{name: "margin too small", page: &PageSettings{Size: "letter", Orientation: "portrait", Margin: 0.1}, wantErr: ErrInvalidMargin},
		{name: "margin too large", page: &PageSettings{Size: "letter", Orientation: "portrait", Margin: 3.5}, wantErr: ErrInvalidMargin},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.page.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPageSettings_Geometry(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		page *PageSettings
		want Geometry
	}{
		{name: "nil", page: nil, want: DefaultGeometry},
		{name: "default settings match default geometry", page: DefaultPageSettings(), want: DefaultGeometry},
		{
			name: "a4 landscape",
			page: &PageSettings{Size: "a4", Orientation: "landscape", Margin: 1},
			want: Geometry{PageWidth: 841.89, PageHeight: 595.28, MarginTop: 72, MarginBottom: 72, MarginLeft: 72, MarginRight: 72},
		},
		{
			name: "legal portrait",
			page: &PageSettings{Size: "LEGAL", Orientation: "portrait", Margin: 0.5},
			want: Geometry{PageWidth: 612, PageHeight: 1008, MarginTop: 36, MarginBottom: 36, MarginLeft: 36, MarginRight: 36},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if diff := cmp.Diff(tt.want, tt.page.Geometry()); diff != "" {
				t.Errorf("Geometry() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTier_String(t *testing.T) {
	t.Parallel()

	for tier, want := range map[Tier]string{TierRich: "rich", TierFallback: "fallback", Tier(7): "Tier(7)"} {
		if got := tier.String(); got != want {
			t.Errorf("Tier(%d).String() = %q, want %q", int(tier), got, want)
		}
	}
}
