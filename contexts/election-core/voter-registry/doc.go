// Package voterregistry owns the voter roster of a ballot: registration,
// bulk import, verification, and the total_voters counter on the ballot
// row. The counter is always recomputed from the roster inside the same
// transaction as the change that moved it, so it cannot drift from the
// rows it summarizes.
package voterregistry
