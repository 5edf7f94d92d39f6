package gpu

import "testing"

func TestIndexFormatFor(t *testing.T) {
	tests := []struct {
		name        string
		vertexCount int
		want        IndexFormat
	}{
		{"empty", 0, IndexFormatUint16},
		{"small", 300, IndexFormatUint16},
		{"at sixteen bit limit", 65535, IndexFormatUint16},
		{"just past sixteen bit limit", 65536, IndexFormatUint32},
		{"large", 1 << 20, IndexFormatUint32},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IndexFormatFor(tt.vertexCount); got != tt.want {
				t.Errorf("IndexFormatFor(%d) = %v, want %v", tt.vertexCount, got, tt.want)
			}
		})
	}
}

func TestNativeBufferUsage(t *testing.T) {
	got := nativeBufferUsage(BufferUsageVertex | BufferUsageCopyDst)
	if got&nativeBufferUsage(BufferUsageVertex) == 0 {
		t.Error("vertex usage bit not mapped")
	}
	if got&nativeBufferUsage(BufferUsageCopyDst) == 0 {
		t.Error("copy-dst usage bit not mapped")
	}
	if got&nativeBufferUsage(BufferUsageIndex) != 0 {
		t.Error("index usage bit set unexpectedly")
	}
}
