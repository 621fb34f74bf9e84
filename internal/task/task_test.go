package task

import (
	"errors"
	"testing"
	"time"
)

func waitReady[T any](t *testing.T, task *Task[T]) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !task.Ready() {
		if time.Now().After(deadline) {
			t.Fatal("task never became ready")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestRunSucceeds(t *testing.T) {
	task := Run(func(p *Progress) (int, error) {
		p.Set(0.5)
		return 42, nil
	})
	waitReady(t, task)
	v, err, ok := task.Get()
	if !ok {
		t.Fatal("expected Get to report ok")
	}
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 42 {
		t.Errorf("value = %d, want 42", v)
	}
	if task.Status() != Succeeded {
		t.Errorf("status = %v, want Succeeded", task.Status())
	}
}

func TestRunFails(t *testing.T) {
	wantErr := errors.New("decode failed")
	task := Run(func(p *Progress) (string, error) {
		return "", wantErr
	})
	waitReady(t, task)
	_, err, ok := task.Get()
	if !ok {
		t.Fatal("expected Get to report ok")
	}
	if !errors.Is(err, wantErr) {
		t.Errorf("err = %v, want %v", err, wantErr)
	}
	if task.Status() != Failed {
		t.Errorf("status = %v, want Failed", task.Status())
	}
}

func TestGetBeforeReady(t *testing.T) {
	block := make(chan struct{})
	task := Run(func(p *Progress) (int, error) {
		<-block
		return 1, nil
	})
	if task.Ready() {
		t.Fatal("task should not be ready yet")
	}
	if _, _, ok := task.Get(); ok {
		t.Error("Get should report not-ok before Ready")
	}
	close(block)
	waitReady(t, task)
}

func TestAbandon(t *testing.T) {
	task := Run(func(p *Progress) (int, error) {
		for !p.Abandoned() {
			time.Sleep(time.Millisecond)
		}
		return 0, nil
	})
	if task.Abandoned() {
		t.Fatal("should not be abandoned yet")
	}
	task.Abandon()
	waitReady(t, task)
	if !task.Abandoned() {
		t.Error("expected Abandoned() to report true")
	}
}
