package sni

// Icon is a pixmap in the (iiay) StatusNotifierItem format: ARGB32
// pixels in network byte order, row by row.
type Icon struct {
	Width  int32
	Height int32
	Bytes  []byte
}

// ToolTip is the (sa(iiay)ss) tooltip of an item.
type ToolTip struct {
	IconName    string
	IconPixmap  []Icon
	Title       string
	Description string
}
