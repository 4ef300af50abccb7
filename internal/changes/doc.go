// Package changes accumulates the files a run rewrote and stages each one as it is reported.
//
// Staging is incremental: a path is added to the index the moment it is
// recorded, so a run that aborts later leaves every earlier change staged.
package changes
