package vizproto

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// Query layer.
	ErrBadRegion   = "E_BAD_REGION"
	ErrSliceOOB    = "E_SLICE_OUT_OF_BOUNDS"
	ErrUnknownType = "E_UNKNOWN_TYPE"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrBadRegion:       {},
	ErrSliceOOB:        {},
	ErrUnknownType:     {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
