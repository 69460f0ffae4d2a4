package cloudwriter

import "fmt"

// CloudWriter streams one object; the object becomes visible on Close.
type CloudWriter interface {
	Write(data []byte) (int, error)
	Close() error
}

type CloudWriterFactory interface {
	NewWriter(bucket, objectPath string) (CloudWriter, error)
}

// Upload writes data as a single object.
func Upload(factory CloudWriterFactory, bucket, objectPath string, data []byte) error {
	w, err := factory.NewWriter(bucket, objectPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", objectPath, err)
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return fmt.Errorf("write %s: %w", objectPath, err)
	}
	return w.Close()
}
