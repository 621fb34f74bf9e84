package config

import "testing"

func TestSetRenderScaleClamps(t *testing.T) {
	c := Default()
	c.SetRenderScale(5)
	if c.RenderScale() != maxRenderScale {
		t.Errorf("RenderScale() = %v, want %v", c.RenderScale(), maxRenderScale)
	}
	c.SetRenderScale(-1)
	if c.RenderScale() != minRenderScale {
		t.Errorf("RenderScale() = %v, want %v", c.RenderScale(), minRenderScale)
	}
	c.SetRenderScale(0.75)
	if c.RenderScale() != 0.75 {
		t.Errorf("RenderScale() = %v, want 0.75", c.RenderScale())
	}
}

func TestLoadMarshalRoundTrip(t *testing.T) {
	c := Default()
	c.SetRenderScale(1.5)
	data, err := c.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	got, err := Load(data)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.RenderScale() != 1.5 {
		t.Errorf("RenderScale() = %v, want 1.5", got.RenderScale())
	}
	if got.Vsync != VsyncOn {
		t.Errorf("Vsync = %v, want VsyncOn", got.Vsync)
	}
}

func TestVsyncJSONRoundTrip(t *testing.T) {
	for _, v := range []Vsync{VsyncOn, VsyncOff, VsyncAdaptive, VsyncMailbox} {
		data, err := v.MarshalJSON()
		if err != nil {
			t.Fatalf("MarshalJSON(%v): %v", v, err)
		}
		var got Vsync
		if err := got.UnmarshalJSON(data); err != nil {
			t.Fatalf("UnmarshalJSON(%s): %v", data, err)
		}
		if got != v {
			t.Errorf("round trip %v -> %v", v, got)
		}
	}
}

func TestLoadInvalidJSON(t *testing.T) {
	if _, err := Load([]byte(`not json`)); err == nil {
		t.Error("expected error for invalid JSON")
	}
}
