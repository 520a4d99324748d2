// Package domain models brewing-water lab results and the chemistry derived
// from them.
//
// # Data Source
//
// Each message on the source topic is one lab test result for a water sample.
// A sample is drawn from a named source (for example "Richmond", of type
// "Public Utility") and may have passed through treatments such as a charcoal
// or RO filter. Samples can be retested, so several results may share a
// sample_id.
//
// # Measurements
//
// Five values are recorded per result, all in mg/L:
//
//	total_hardness    calcium + magnesium hardness, as CaCO3
//	ca_hardness       calcium hardness only, as CaCO3
//	total_alkalinity  as CaCO3
//	sulfate           SO4
//	chlorine          Cl
//
// Values may arrive as JSON numbers or numeric strings. A missing value is an
// error; it is never treated as zero.
//
// # Derived Chemistry
//
//	mg_hardness            = total_hardness - ca_hardness
//	res_alkalinity         = total_alkalinity - (ca_hardness/3.5 + mg_hardness/7)
//	calcium (Ca2+)         = ca_hardness * 0.4
//	magnesium (Mg2+)       = mg_hardness * 0.25
//	bicarbonate (HCO3-)    = total_alkalinity * 1.22
//	sulfate_chlorine_ratio = sulfate / chlorine
//
// Derived values are pure functions of the measurements and are recomputed
// whenever a result is processed. A zero chlorine reading fails with
// [ErrDivisionByZero]; NaN or infinite readings fail with [ErrInvalidInput].
//
// # Balance
//
// The sulfate/chlorine ratio is mapped to a perceived bitterness/maltiness
// label by nearest threshold in [DefaultBalanceTable]:
//
//	0 Too Malty | 0.4 Very Malty | 0.6 Malty | 0.8 Balanced | 1.5 Little Bitter
//	2.0 More Bitter | 4.0 Extra Bitter | 6.0 Quite Bitter | 8.0 Very Bitter | 9.0 Too Bitter
//
// Ratios far above 9.0 still map to "Too Bitter". A ratio exactly between two
// thresholds takes the lower one, so 0.5 is "Very Malty".
//
// # Plausibility
//
// Suspicious chemistry (calcium hardness above total hardness, negative
// readings) is computed as-is and reported through [TestResult.Flags] so that
// downstream consumers can decide what to do with it.
package domain
