package chipsynth

// synthesizeHarmonics uses the same two-phase-accumulator loop as chip
// waves (spec §4.6 groups "Chip / Harmonics" together) but reads a wave
// table built from the instrument's 28-point harmonics control array
// instead of a fixed built-in shape.
func synthesizeHarmonics(t *tone, inst *Instrument, caches *engineCaches, buffer []float64, sampleRate float64) {
	table := caches.harmonics.get(inst)
	synthesizeChip(t, table, buffer, sampleRate)
}

// harmonicsWaveCache lazily builds and caches the integrated wave table for
// an instrument's harmonics array. It is owned per-engine-instance (see
// engineCaches in caches.go), never process-global, per spec §9 "Global
// mutable caches".
type harmonicsWaveCache struct {
	byKey map[[28]int][]float64
}

func newHarmonicsWaveCache() *harmonicsWaveCache {
	return &harmonicsWaveCache{byKey: make(map[[28]int][]float64)}
}

func (c *harmonicsWaveCache) get(inst *Instrument) []float64 {
	if w, ok := c.byKey[inst.HarmonicsWave]; ok {
		return w
	}
	w := buildHarmonicsWave(inst.HarmonicsWave)
	c.byKey[inst.HarmonicsWave] = w
	return w
}
