package io

import (
	"fmt"

	"neuronet/internal/scape"
)

const DefaultInjectionMagnitude = 1.2

func init() {
	initializeDefaultComponents()
}

func initializeDefaultComponents() {
	screenOnly := RequireEnvironment(scape.SimpleScreenName)

	encoders := []EncoderSpec{
		{
			Name:    NullEncoderName,
			Factory: func(BuildContext) (Encoder, error) { return NullEncoder{}, nil },
		},
		{
			Name:       PositionEncoderName,
			Factory:    buildPositionEncoder,
			Compatible: screenOnly,
		},
		{
			Name:       HalfPlaneDirectionEncoderName,
			Factory:    buildHalfPlaneDirectionEncoder,
			Compatible: screenOnly,
		},
		{
			Name: TilePoissonEncoderName,
			Factory: func(BuildContext) (Encoder, error) {
				return NotImplementedEncoder{ComponentName: TilePoissonEncoderName}, nil
			},
			Compatible: screenOnly,
		},
		{
			Name: EventDeltaEncoderName,
			Factory: func(BuildContext) (Encoder, error) {
				return NotImplementedEncoder{ComponentName: EventDeltaEncoderName}, nil
			},
			Compatible: screenOnly,
		},
	}
	for _, spec := range encoders {
		spec.SchemaVersion = SupportedSchemaVersion
		spec.CodecVersion = SupportedCodecVersion
		if err := RegisterEncoderWithSpec(spec); err != nil {
			panic(err)
		}
	}

	decoders := []DecoderSpec{
		{
			Name:    NoopDecoderName,
			Factory: func(BuildContext) (Decoder, error) { return NoopDecoder{}, nil },
		},
		{
			Name:       FirstToSpikeMoveDecoderName,
			Factory:    buildFirstToSpikeMoveDecoder,
			Compatible: screenOnly,
		},
		{
			Name: RateWindowPutCharDecoderName,
			Factory: func(BuildContext) (Decoder, error) {
				return NotImplementedDecoder{ComponentName: RateWindowPutCharDecoderName}, nil
			},
			Compatible: screenOnly,
		},
	}
	for _, spec := range decoders {
		spec.SchemaVersion = SupportedSchemaVersion
		spec.CodecVersion = SupportedCodecVersion
		if err := RegisterDecoderWithSpec(spec); err != nil {
			panic(err)
		}
	}
}

func buildPositionEncoder(ctx BuildContext) (Encoder, error) {
	base, err := ctx.Params.Int("base", 0)
	if err != nil {
		return nil, err
	}
	magnitude, err := ctx.Params.Float("magnitude", DefaultInjectionMagnitude)
	if err != nil {
		return nil, err
	}
	minInterval, err := ctx.Params.Int("min_interval", 1)
	if err != nil {
		return nil, err
	}
	enc, err := NewPositionEncoder(ctx.Width, ctx.Height, base, magnitude, minInterval)
	if err != nil {
		return nil, err
	}
	if end := base + enc.Span(); end > ctx.Neurons {
		return nil, fmt.Errorf("position encoder needs neurons [%d,%d), network has %d", base, end, ctx.Neurons)
	}
	return enc, nil
}

func buildHalfPlaneDirectionEncoder(ctx BuildContext) (Encoder, error) {
	groups, err := directionNeurons(ctx)
	if err != nil {
		return nil, err
	}
	magnitude, err := ctx.Params.Float("magnitude", DefaultInjectionMagnitude)
	if err != nil {
		return nil, err
	}
	enc := HalfPlaneDirectionEncoder{Magnitude: magnitude}
	for dir, ids := range groups {
		if len(ids) != 1 {
			return nil, fmt.Errorf("half-plane encoder wants one neuron per direction, %s has %d", Direction(dir), len(ids))
		}
		enc.Neurons[dir] = ids[0]
	}
	return enc, nil
}

func buildFirstToSpikeMoveDecoder(ctx BuildContext) (Decoder, error) {
	groups, err := directionNeurons(ctx)
	if err != nil {
		return nil, err
	}
	step, err := ctx.Params.Int("step", 1)
	if err != nil {
		return nil, err
	}
	return NewFirstToSpikeMoveDecoder(groups[DirUp], groups[DirDown], groups[DirLeft], groups[DirRight], step)
}

// directionNeurons reads up/down/left/right neuron lists from params,
// falling back to the first four output neurons in that order.
func directionNeurons(ctx BuildContext) ([4][]int, error) {
	var groups [4][]int
	for dir := DirUp; dir <= DirRight; dir++ {
		var def []int
		if len(ctx.Outputs) >= 4 {
			def = []int{ctx.Outputs[dir]}
		}
		ids, err := ctx.Params.Ints(dir.String(), def)
		if err != nil {
			return groups, err
		}
		if len(ids) == 0 {
			return groups, fmt.Errorf("no neurons for direction %s: set params.%s or configure 4 outputs", dir, dir)
		}
		for _, id := range ids {
			if id < 0 || id >= ctx.Neurons {
				return groups, fmt.Errorf("direction %s neuron %d not in [0,%d)", dir, id, ctx.Neurons)
			}
		}
		groups[dir] = ids
	}
	return groups, nil
}
