package io

import "neuronet/internal/snn"

// FitToTicks aligns an encoder's natural output to the tick count of an
// outer step: extra maps are dropped and missing ticks get empty maps.
func FitToTicks(maps []snn.InjectionMap, tickCount int) []snn.InjectionMap {
	if tickCount <= 0 {
		return nil
	}
	out := make([]snn.InjectionMap, tickCount)
	for i := range out {
		if i < len(maps) && maps[i] != nil {
			out[i] = maps[i]
			continue
		}
		out[i] = snn.InjectionMap{}
	}
	return out
}

func emptyMaps(tickCount int) []snn.InjectionMap {
	return FitToTicks(nil, tickCount)
}
