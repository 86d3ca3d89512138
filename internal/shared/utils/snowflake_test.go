package utils

import (
	"testing"
	"time"
)

func TestSnowflake_单调递增且带节点号(t *testing.T) {
	s, err := NewSnowflake(7)
	if err != nil {
		t.Fatalf("NewSnowflake err=%v", err)
	}
	prev := int64(0)
	for i := 0; i < 5000; i++ {
		id := s.NextID()
		if id <= prev {
			t.Fatalf("期望单调递增, prev=%d id=%d", prev, id)
		}
		if NodeOf(id) != 7 {
			t.Fatalf("期望节点号 7, got=%d", NodeOf(id))
		}
		prev = id
	}
}

func TestSnowflake_时钟回拨不回退(t *testing.T) {
	s, _ := NewSnowflake(1)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }
	first := s.NextID()
	s.now = func() time.Time { return base.Add(-time.Second) }
	if second := s.NextID(); second <= first {
		t.Fatalf("期望时钟回拨后仍递增, first=%d second=%d", first, second)
	}
}

func TestNewSnowflake_节点号越界(t *testing.T) {
	if _, err := NewSnowflake(1024); err == nil {
		t.Fatalf("期望节点号越界报错")
	}
}

func TestNewID_格式(t *testing.T) {
	id := NewID()
	if !IsID(id) || IsID("not-a-uuid") {
		t.Fatalf("id 校验不符合预期: %s", id)
	}
}
