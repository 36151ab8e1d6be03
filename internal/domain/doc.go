// Package domain models RASS temperature profiles and MADIS surface
// station observations.
//
// # RASS profiles
//
// Profiles come from a NOAA PSL 449 MHz radar wind profiler running the
// Weber-Wuertz RASS (Radar Acoustic Sounding System) processing. The
// archive is partitioned by year and day-of-year, with file names of the
// form sbaDDDHH.NNt (site prefix, five digits, two-digit sequence, "t"
// extension). Files are fixed-width text:
//
//	Header: one of the first lines carries "yy mm dd hh mi ss" with a
//	        two-digit year; the observation time is always UTC.
//	Table:  begins after a header line starting with "HT". Column one is
//	        height in kilometers above site, column two is virtual
//	        temperature in Celsius. The table ends at the first blank
//	        line or a line starting with "$".
//	Sentinel: temperature values >= 999999 mark range gates with no
//	        valid retrieval and are discarded.
//
// Raw gate heights are irregular, so profiles are resampled onto a uniform
// 100 m altitude grid by linear interpolation before any downstream use.
//
// # MADIS observations
//
// Surface temperatures come from the MADIS public XML query service.
// Records carry virtual temperature (variable code "V-T") in Kelvin,
// station elevation in meters, and an observation time formatted
// YYYY-MM-DDTHH:MM (UTC, fixed width, so lexicographic order equals
// temporal order). A record is usable only when station id, observation
// time, elevation, and value are all present. When a station reports more
// than once in a response, the newest observation wins.
//
// A station that yields no usable record resolves to a fully-missing
// observation whose Provider field holds a diagnostic ("no_temp" or the
// captured fetch/parse error) so the run can degrade instead of failing.
package domain
