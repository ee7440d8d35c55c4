package timeutil

import "time"

// NowUnix is the single clock for ctime/mtime columns, unix seconds.
func NowUnix() int64 {
	return time.Now().Unix()
}
