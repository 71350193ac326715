package models

// Palabra is a known vocabulary entry. Videos reference palabras as free
// text; the two are only loosely related.
type Palabra struct {
	ID     int    `json:"id"`
	Nombre string `json:"nombre"`
}
