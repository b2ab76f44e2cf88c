package tlog

import (
	"testing"
)

func BenchmarkVerify(b *testing.B) {
	path := benchLog(b)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if res := Verify(path); !res.Valid {
			b.Fatal(res.Error)
		}
	}
}

func BenchmarkReplay(b *testing.B) {
	path := benchLog(b)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Replay(path, Filter{EpisodeID: "bench"}); err != nil {
			b.Fatal(err)
		}
	}
}

func benchLog(b *testing.B) string {
	hp := make([]int, 1000)
	for i := range hp {
		hp[i] = 100 - i%100
	}
	return writeLog(b, map[string][]int{"bench": hp}, "bench")
}
