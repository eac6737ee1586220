package app

import "runtime"

// runtimeMem reports the Go heap: bytes in live objects against bytes the
// heap has obtained.
type runtimeMem struct{}

func (runtimeMem) MemUsage() (used, total int) {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return int(ms.HeapAlloc), int(ms.HeapSys)
}
