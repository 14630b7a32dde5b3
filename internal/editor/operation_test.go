package editor

import (
	"testing"

	"image-editor-go/internal/pathref"
)

func TestOp_OutputName(t *testing.T) {
	tests := []struct {
		op   Op
		src  string
		want string
	}{
		{OpConvert, "/in/photo.png", "photo-Converted.jpeg"},
		{OpConvert, "/in/photo.JPG", "photo-Converted.jpeg"},
		{OpConvert, "/in/noext", "noext-Converted.jpeg"},
		{OpCompress, "/in/photo.JPG", "photo-Compressed.jpg"},
		{OpCompress, "/in/photo.jpeg", "photo-Compressed.jpeg"},
		{OpResize, "/in/photo.PNG", "photo-Resized.png"},
		{OpResize, "/in/my.holiday.jpg", "my.holiday-Resized.jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.op.String()+" "+tt.src, func(t *testing.T) {
			src, err := pathref.NewFileRef(tt.src)
			if err != nil {
				t.Fatal(err)
			}
			if got := tt.op.OutputName(src); got != tt.want {
				t.Errorf("OutputName() = %q, expected %q", got, tt.want)
			}
		})
	}
}

func TestParseOp(t *testing.T) {
	for _, name := range []string{"convert", "compress", "resize"} {
		op, err := ParseOp(name)
		if err != nil {
			t.Fatalf("ParseOp(%q) failed: %v", name, err)
		}
		if op.String() != name {
			t.Errorf("Round trip %q -> %q", name, op.String())
		}
		if op.BatchName() != "dir-"+name {
			t.Errorf("BatchName() = %q", op.BatchName())
		}
	}
	if _, err := ParseOp("rotate"); err == nil {
		t.Error("Expected error for unknown operation")
	}
}

func TestOp_Extensions(t *testing.T) {
	if OpConvert.Extensions() != nil {
		t.Error("Convert should accept any extension")
	}
	png, _ := pathref.NewFileRef("/a.png")
	jpg, _ := pathref.NewFileRef("/a.JPEG")

	if png.HasExt(OpCompress.Extensions()) {
		t.Error("Compress should reject .png")
	}
	if !jpg.HasExt(OpCompress.Extensions()) {
		t.Error("Compress should accept .JPEG")
	}
	if !png.HasExt(OpResize.Extensions()) || !jpg.HasExt(OpResize.Extensions()) {
		t.Error("Resize should accept .png and .jpeg")
	}
}

func TestOp_FailureKind(t *testing.T) {
	tests := map[Op]int{OpConvert: 31, OpCompress: 25, OpResize: 27}
	for op, code := range tests {
		if got := op.failureKind().ExitCode(); got != code {
			t.Errorf("%s failure exit code = %d, expected %d", op, got, code)
		}
	}
}
