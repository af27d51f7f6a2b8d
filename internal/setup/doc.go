// Package setup handles first-run state, the dependency report, Python
// package installation and resetting the application.
package setup
