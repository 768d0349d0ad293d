// Package recommend implements the daily restaurant-of-the-day cycle: pure
// candidate scoring, tagline composition, and the coordinator that lets a
// fleet of unsynchronized kiosks converge on exactly one recommendation per
// team per day using the git remote as the arbiter.
package recommend
