package tgl

import (
	"golang.org/x/exp/rand"
)

//Purpose tags separate the streams used inside one trial, so that the subsample
//does not depend on how many reweighting factors were drawn and vice versa.
const (
	streamSubsample uint64 = 1
	streamReweight  uint64 = 2
)

//TrialKey addresses one randomized trial of one target gene.
type TrialKey struct {
	Target int // index into the target list
	Trial  int // iteration index in [0, nsplit)
}

//RandomSource derives independent reproducible streams from a seed and a trial key.
//It holds no mutable state and is safe for concurrent use.
type RandomSource struct {
	seed int64
}

//NewRandomSource returns a source for seed; zero selects DefaultSeed.
func NewRandomSource(seed int64) RandomSource {
	if seed == 0 {
		seed = DefaultSeed
	}
	return RandomSource{seed: seed}
}

func (rs RandomSource) Seed() int64 {
	return rs.seed
}

//Stream returns a fresh generator for (seed, key, purpose). Identical arguments
//always yield identical draws, whatever goroutine asks for them.
func (rs RandomSource) Stream(key TrialKey, purpose uint64) rand.Source {
	x := mix64(uint64(rs.seed), uint64(key.Target))
	x = mix64(x, uint64(key.Trial))
	x = mix64(x, purpose)
	return rand.NewSource(x)
}

//mix64 folds v into the state h with a SplitMix64 finalizer.
func mix64(h, v uint64) uint64 {
	x := h ^ (v + 0x9e3779b97f4a7c15)
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}
