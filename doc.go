// Package scicore is the core runtime for Sierra SCI 1.1 game
// resources: a Resource Store over map/volume/patch archives, a
// Script Loader for decoding the class/object graph out of paired
// Script and Heap resources, and an Atomic Directory Writer for
// crash-safe whole-directory commits.
//
// scicore has no command-line front end; it is a library consumed by
// tools that need these three pieces.
package scicore
