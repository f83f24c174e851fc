// Package gormstore implements the store interfaces with gorm on top of the
// two persistence contexts. SecurityContext owns users, roles, user-role links,
// and user claims; ServerContext owns application items. The two never share a
// connection.
package gormstore
