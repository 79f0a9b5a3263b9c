package eosfile

// Format selects how the input file is decoded.
type Format string

const (
	FormatText Format = "text" // whitespace-delimited, no header
	FormatXLSX Format = "xlsx" // first (or named) sheet, no header
)

// Config holds configuration for an EOS table source
type Config struct {
	FilePath      string `json:"file_path"`
	Format        Format `json:"format"`         // empty: inferred from the extension
	Sheet         string `json:"sheet"`          // xlsx only; empty: first sheet
	CommentPrefix string `json:"comment_prefix"` // text only; lines starting with it are skipped
	MaxLineBytes  int    `json:"max_line_bytes"`
}

// DefaultConfig returns sensible defaults for solver output files
func DefaultConfig() Config {
	return Config{
		CommentPrefix: "#",
		MaxLineBytes:  1 << 20,
	}
}
