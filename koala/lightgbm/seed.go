package lightgbm

import "time"

// SeedSource supplies seeds for seed parameters left at 0.
type SeedSource interface {
	// Seed returns a nonzero seed.
	Seed() int64
}

// WallClockSeed seeds from the current Unix time in seconds, so every
// unseeded run gets a different seed.
type WallClockSeed struct {
	// Now defaults to time.Now.
	Now func() time.Time
}

// Seed implements SeedSource.
func (w WallClockSeed) Seed() int64 {
	now := time.Now
	if w.Now != nil {
		now = w.Now
	}
	if s := now().Unix(); s != 0 {
		return s
	}
	return 1
}

// FixedSeed always returns the same seed. Zero is mapped to 1.
type FixedSeed int64

// Seed implements SeedSource.
func (f FixedSeed) Seed() int64 {
	if f == 0 {
		return 1
	}
	return int64(f)
}
