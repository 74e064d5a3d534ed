// Package store declares the persistence interfaces of the study flow, the
// sentinel errors every backend maps its driver errors onto, and the
// transaction runner the services use to group writes.
package store
