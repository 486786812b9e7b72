package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type            string     `json:"type"`
	ProtocolVersion string     `json:"protocol_version"`
	ClientName      string     `json:"client_name"`
	Auth            *HelloAuth `json:"auth,omitempty"`
}

type HelloAuth struct {
	Token string `json:"token,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string     `json:"type"`
	ProtocolVersion string     `json:"protocol_version"`
	SessionID       string     `json:"session_id"`
	ResumeToken     string     `json:"resume_token"`
	WorldID         string     `json:"world_id"`
	Map             MapParams  `json:"map"`
	Markers         []Marker   `json:"markers"`
	Status          StatusView `json:"status"`
	Popup           *PopupView `json:"popup,omitempty"`
}

// MapParams is what the client map widget needs to draw the board.
type MapParams struct {
	Center      [2]float64   `json:"center"`
	Zoom        int          `json:"zoom"`
	MinZoom     int          `json:"min_zoom"`
	MaxZoom     int          `json:"max_zoom"`
	TileURL     string       `json:"tile_url"`
	Attribution string       `json:"attribution"`
	CellDegrees float64      `json:"cell_degrees"`
	Radius      int          `json:"radius"`
	Player      PlayerMarker `json:"player"`
}

// PlayerMarker is the fixed player position and the text of its popup.
type PlayerMarker struct {
	Position [2]float64 `json:"position"`
	Label    string     `json:"label"`
}

// Marker is one cache on the map. Position is the south-west corner of the
// cell; Bounds is [south-west, north-east].
type Marker struct {
	ID       string        `json:"id"`
	Cell     [2]int        `json:"cell"`
	Position [2]float64    `json:"position"`
	Bounds   [2][2]float64 `json:"bounds"`
	Coins    int           `json:"coins"`
}

// STATE (server -> client): full re-render after every change.
type StateMsg struct {
	Type            string     `json:"type"`
	ProtocolVersion string     `json:"protocol_version"`
	Seq             uint64     `json:"seq"`
	Status          StatusView `json:"status"`
	Popup           *PopupView `json:"popup,omitempty"`
	Markers         []Marker   `json:"markers,omitempty"`
}

type StatusView struct {
	Text      string     `json:"text"`
	Points    int        `json:"points"`
	Inventory []CoinView `json:"inventory"`
}

type CoinView struct {
	ID     string `json:"id"`
	Origin [2]int `json:"origin"`
	Serial int    `json:"serial"`
}

type PopupView struct {
	Cell    [2]int       `json:"cell"`
	Title   string       `json:"title"`
	Count   int          `json:"count"`
	Coins   []CoinView   `json:"coins"`
	Buttons []ButtonView `json:"buttons"`
}

type ButtonView struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Enabled bool   `json:"enabled"`
	Coin    string `json:"coin,omitempty"`
}

// ACT (client -> server)
type ActMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ID              string `json:"id,omitempty"`
	Action          string `json:"action"`
	Cell            [2]int `json:"cell"`
	// Serial selects the coin to collect. Coin (an "i:j#serial" id) wins
	// when both are set; with neither, the first coin in the cache is taken.
	Serial *int   `json:"serial,omitempty"`
	Coin   string `json:"coin,omitempty"`
}

// ACK (server -> client)
type AckMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	AckFor          string `json:"ack_for"`
	Accepted        bool   `json:"accepted"`
	Code            string `json:"code,omitempty"`
	Message         string `json:"message,omitempty"`
	Seq             uint64 `json:"seq,omitempty"`
}
