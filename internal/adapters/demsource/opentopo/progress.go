package opentopo

import (
	"fmt"
	"io"

	"github.com/gosuri/uiprogress"
)

// startBar starts a KiB-granular bar for a body of total bytes
func startBar(total int64) *uiprogress.Bar {
	uiprogress.Start()
	bar := uiprogress.AddBar(int(total / 1024)).AppendCompleted().PrependElapsed()
	bar.PrependFunc(func(b *uiprogress.Bar) string {
		return fmt.Sprintf("DEM %6.1f MiB", float64(b.Current())/1024)
	})
	return bar
}

// progressWriter advances bar as bytes land on disk
type progressWriter struct {
	w   io.Writer
	bar *uiprogress.Bar
	n   int64
}

func (p *progressWriter) Write(b []byte) (int, error) {
	n, err := p.w.Write(b)
	p.n += int64(n)
	_ = p.bar.Set(int(p.n / 1024))
	return n, err
}
