// Package domain models groundwater monitoring observations and implements
// the analytics engine: synthetic series generation, scoring, trend and
// alert analysis, forecasting, and cross-location aggregation.
//
// All engine functions are pure: they take value types, return value types,
// perform no I/O, and are safe for concurrent use. Collection ownership and
// caching live outside this package (internal/store, internal/cache).
//
// # Data Conventions
//
// One Observation is a single (location, year) measurement record. Series
// are unique per (location, year) and ordered ascending by year before any
// trend or regression computation.
//
// Units:
//
//	GroundwaterLevel  metres below ground (deeper = worse)
//	Rainfall          millimetres per year
//	DepletionRate     percent per year
//	Consumption       megalitres per year
//	PerCapitaUsage    litres per person per day
//	Agricultural/Industrial/HouseholdUsage  percent share of consumption
//	PH                standard pH units
//
// # Deterministic Pseudo-Randomness
//
// The series generator derives a per-location seed with [NameHash], a
// 31-multiplier polynomial string hash with explicit 32-bit signed overflow
// wraparound. The same hash drives [FallbackCoordinates], so two independent
// consumers of the same name always agree on the synthetic placement.
// Generating a series twice from the same base observation produces
// byte-identical output; there is no real randomness anywhere.
//
// # Scoring
//
// The composite Water Score is a weighted sum of four normalized components:
//
//	groundwater level  domain [4,20] m    inverted  weight 0.35
//	rainfall           domain [500,1500]  mm        weight 0.25
//	depletion rate     domain [0,10] %    inverted  weight 0.30
//	|pH − 7.0|         domain [0,1.5]     inverted  weight 0.10
//
// Scores are integers in [0,100]. Status buckets: ≥70 Safe, ≥40 Warning,
// else Critical.
//
// # Alert Thresholds
//
// Stateless threshold alerts fire on the latest observation:
//
//	water level   ≥12 m warning  | ≥15 m critical
//	depletion     ≥5 %  warning  | ≥7 %  critical
//	rainfall      ≤700 mm warning | ≤600 mm critical
//	pH            outside [6.5, 8.0] warning
//	consumption   ≥500 Ml warning
//	scarcity      Severe warning | Extreme critical
//
// Sustained-trend alerts need at least three chronological points and fire
// on runs of length ≥3: strictly increasing groundwater level, strictly
// increasing depletion rate, or strictly decreasing rainfall.
//
// # Generator Calibration
//
// The per-metric drift and noise coefficients in [GenerateSeries] are fixed
// calibration constants, chosen so a six-year synthetic series spans the
// alert thresholds' dynamic range without escaping the per-metric clamps
// (depletion ≥0.5, rainfall ≥400, level ≥3, pH ∈ [6.0, 9.0]).
package domain
