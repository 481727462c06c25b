package model

import (
	"testing"
	"time"
)

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	tm, err := time.Parse("2006-01-02 15:04", s)
	if err != nil {
		t.Fatalf("解析时间失败: %v", err)
	}
	return tm
}

func tr(t *testing.T, start, end string) TimeRange {
	t.Helper()
	return TimeRange{Start: mustTime(t, start), End: mustTime(t, end)}
}

func TestTimeRange_Overlaps(t *testing.T) {
	tests := []struct {
		name string
		a    TimeRange
		b    TimeRange
		want bool
	}{
		{
			name: "完全重叠",
			a:    tr(t, "2025-04-01 08:00", "2025-04-01 16:00"),
			b:    tr(t, "2025-04-01 08:00", "2025-04-01 16:00"),
			want: true,
		},
		{
			name: "部分重叠",
			a:    tr(t, "2025-04-01 08:00", "2025-04-01 16:00"),
			b:    tr(t, "2025-04-01 12:00", "2025-04-01 20:00"),
			want: true,
		},
		{
			name: "首尾相接不算重叠",
			a:    tr(t, "2025-04-01 08:00", "2025-04-01 16:00"),
			b:    tr(t, "2025-04-01 16:00", "2025-04-02 00:00"),
			want: false,
		},
		{
			name: "完全分离",
			a:    tr(t, "2025-04-01 08:00", "2025-04-01 12:00"),
			b:    tr(t, "2025-04-02 08:00", "2025-04-02 12:00"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Overlaps(tt.b); got != tt.want {
				t.Errorf("Overlaps() = %v, want %v", got, tt.want)
			}
			// 重叠关系应当对称
			if got := tt.b.Overlaps(tt.a); got != tt.want {
				t.Errorf("Overlaps() 反向 = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTimeRange_Contains(t *testing.T) {
	outer := tr(t, "2025-04-01 08:00", "2025-04-01 20:00")

	if !outer.Contains(tr(t, "2025-04-01 09:00", "2025-04-01 17:00")) {
		t.Error("内部范围应被包含")
	}
	if !outer.Contains(outer) {
		t.Error("相同范围应被包含")
	}
	if outer.Contains(tr(t, "2025-04-01 07:00", "2025-04-01 09:00")) {
		t.Error("越过起点的范围不应被包含")
	}
}

func TestTimeRange_Hours(t *testing.T) {
	r := tr(t, "2025-04-01 08:00", "2025-04-01 16:30")
	if got := r.Hours(); got != 8.5 {
		t.Errorf("Hours() = %v, want 8.5", got)
	}
}
