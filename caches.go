package chipsynth

// engineCaches holds the immutable data an engine instance needs (lazily
// filled custom wave table caches, plus the retro noise and guitar impulse
// waves built at construction) and its seedable RNG. Owned per-Player, never process-global, so multiple engine
// instances can coexist without sharing state, per spec §9.
type engineCaches struct {
	harmonics    *harmonicsWaveCache
	spectrum     *spectrumWaveCache
	drumset      *drumsetWaveCache
	retroNoise   []float64
	guitarImpulse []float64
	rng          *lcg
}

func newEngineCaches(seed uint64) *engineCaches {
	return &engineCaches{
		harmonics:     newHarmonicsWaveCache(),
		spectrum:      newSpectrumWaveCache(),
		drumset:       newDrumsetWaveCache(),
		retroNoise:    buildLFSRNoiseWave(),
		guitarImpulse: buildGuitarImpulseWave(),
		rng:           newLCG(seed),
	}
}
