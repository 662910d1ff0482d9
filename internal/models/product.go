package models

// Product is one stock row of the catalog. Every field is carried exactly as
// read from the source; Quantity and LastUpdate are not parsed.
type Product struct {
	Code       string `json:"kodeBarang" db:"kode_barang"`
	Name       string `json:"namaBarang" db:"nama_barang"`
	Quantity   string `json:"stok" db:"stok"`
	Unit       string `json:"satuan" db:"satuan"`
	Location   string `json:"lokasi" db:"lokasi"`
	LastUpdate string `json:"lastUpdate" db:"last_update"`
}

// ScoredMatch is a Product with the number of query tokens found in its name.
type ScoredMatch struct {
	Product
	Score int `json:"score"`
}
