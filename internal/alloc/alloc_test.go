package alloc

import "testing"

func TestMipLevelsFor(t *testing.T) {
	cases := []struct {
		w, h uint32
		want uint32
	}{
		{1, 1, 1},
		{2, 2, 2},
		{256, 256, 9},
		{300, 128, 9},
		{0, 0, 1},
		{1024, 512, 11},
	}
	for _, c := range cases {
		if got := MipLevelsFor(c.w, c.h); got != c.want {
			t.Errorf("MipLevelsFor(%d, %d) = %d, want %d", c.w, c.h, got, c.want)
		}
	}
}
