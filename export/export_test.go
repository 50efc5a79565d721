package export

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phenotools/silexplorer/frame"
)

func seriesFrame(name string) *frame.Frame {
	f := frame.New("URI", name, "Date")
	r := f.Append()
	f.Set(r, "URI", "os1")
	f.Set(r, name, "1.5")
	f.Set(r, "Date", "2017-04-01")
	return f
}

func TestDirSink(t *testing.T) {
	dir := t.TempDir()
	sink := NewDirSink(filepath.Join(dir, "out"))

	require.NoError(t, sink.Put("Leaf_Area_Index_data", seriesFrame("Leaf_Area_Index")))

	b, err := os.ReadFile(filepath.Join(dir, "out", "Leaf_Area_Index_data.csv"))
	require.NoError(t, err)
	assert.Equal(t, "URI,Leaf_Area_Index,Date\nos1,1.5,2017-04-01\n", string(b))
}

func TestWriteSeries(t *testing.T) {
	dir := t.TempDir()
	sink := NewDirSink(dir)
	series := map[string]*frame.Frame{
		"Leaf_Area_Index": seriesFrame("Leaf_Area_Index"),
		"Plant_Height":    seriesFrame("Plant_Height"),
	}

	require.NoError(t, WriteSeries(sink, series))

	for _, name := range []string{"Leaf_Area_Index", "Plant_Height"} {
		_, err := os.Stat(filepath.Join(dir, name+"_data.csv"))
		assert.NoError(t, err)
	}
}

type fakeS3 struct {
	s3iface.S3API
	puts map[string]string
}

func (f *fakeS3) PutObject(in *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
	buf := make([]byte, 1024)
	n, _ := in.Body.Read(buf)
	f.puts[aws.StringValue(in.Key)] = string(buf[:n])
	return &s3.PutObjectOutput{}, nil
}

func TestS3Sink(t *testing.T) {
	sink, err := NewS3Sink("phenotools-test-bucket",
		OptS3Region("eu-west-3"), OptS3Prefix("exports/ZA17"))
	require.NoError(t, err)

	fake := &fakeS3{puts: map[string]string{}}
	sink.s3 = fake

	require.NoError(t, sink.Put("Leaf_Area_Index_data", seriesFrame("Leaf_Area_Index")))

	body, ok := fake.puts["exports/ZA17/Leaf_Area_Index_data.csv"]
	require.True(t, ok)
	assert.Contains(t, body, "URI,Leaf_Area_Index,Date")
}

func TestNewS3SinkRequiresBucket(t *testing.T) {
	_, err := NewS3Sink("")
	require.Error(t, err)
}
