package service

const (
	// defaultWindowDays bounds the trailing history window for learning
	defaultWindowDays = 90

	// minUserElapsedDays is substituted for events reported directly by the
	// user: manual edits are instantaneous and do not represent consumption
	// over real time
	minUserElapsedDays = 0.01

	// minFirstEventDays guards the zero-history case, where elapsed time is
	// measured from item creation
	minFirstEventDays = 0.1

	// rateWriteEpsilon is the smallest rate change worth persisting
	rateWriteEpsilon = 0.001

	hoursPerDay = 24.0
)
