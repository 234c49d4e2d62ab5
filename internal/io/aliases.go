package io

import "strings"

const (
	NullEncoderName               = "null"
	PositionEncoderName           = "position"
	HalfPlaneDirectionEncoderName = "half-plane-direction"
	TilePoissonEncoderName        = "tile-poisson"
	EventDeltaEncoderName         = "event-delta"

	NoopDecoderName              = "noop"
	FirstToSpikeMoveDecoderName  = "first-to-spike-move"
	RateWindowPutCharDecoderName = "rate-window-put-char"
)

var componentAliasToCanonical = map[string]string{
	"nullencoder":               NullEncoderName,
	"positionencoder":           PositionEncoderName,
	"halfplanedirectionencoder": HalfPlaneDirectionEncoderName,
	"halfplanedirection":        HalfPlaneDirectionEncoderName,
	"tilepoissonencoder":        TilePoissonEncoderName,
	"tilepoisson":               TilePoissonEncoderName,
	"eventdeltaencoder":         EventDeltaEncoderName,
	"eventdelta":                EventDeltaEncoderName,
	"noopdecoder":               NoopDecoderName,
	"firsttospikemovedecoder":   FirstToSpikeMoveDecoderName,
	"firsttospikemove":          FirstToSpikeMoveDecoderName,
	"ratewindowputchardecoder":  RateWindowPutCharDecoderName,
	"ratewindowputchar":         RateWindowPutCharDecoderName,
}

// CanonicalComponentName maps class-style and snake_case spellings onto
// registered component names.
func CanonicalComponentName(name string) string {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return ""
	}
	compact := strings.ToLower(trimmed)
	compact = strings.NewReplacer("_", "", "-", "", " ", "").Replace(compact)
	if canonical, ok := componentAliasToCanonical[compact]; ok {
		return canonical
	}
	return strings.ReplaceAll(strings.ToLower(trimmed), "_", "-")
}
