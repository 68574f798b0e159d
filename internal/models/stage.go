package models

// Stage is one milestone slot on the progress board
type Stage struct {
	Name    string `json:"name" yaml:"name"`
	Glyph   string `json:"glyph" yaml:"glyph"`
	Tooltip string `json:"tooltip" yaml:"tooltip"`
}
