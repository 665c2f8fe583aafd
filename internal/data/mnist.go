package data

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/laurent-dinh/blocks/internal/tensor"
)

const (
	imagePixels    = 28 * 28
	imagesMagic    = 2051
	labelsMagic    = 2049
	trainImageFile = "train-images-idx3-ubyte"
	trainLabelFile = "train-labels-idx1-ubyte"
	testImageFile  = "t10k-images-idx3-ubyte"
	testLabelFile  = "t10k-labels-idx1-ubyte"
)

// MNISTDataset holds a whole split in memory: images as row vectors
// normalized to [0, 1] and labels as class indices.
type MNISTDataset struct {
	Images [][]float32 // [numSamples][784]
	Labels []int32     // [numSamples]
}

// MNISTBatch is one mini-batch ready for the model.
type MNISTBatch struct {
	Images *tensor.Tensor // [batch, 784] float32
	Labels *tensor.Tensor // [batch] int32
}

// LoadMNIST reads an MNIST split from IDX files in dataDir.
func LoadMNIST(dataDir string, train bool) (*MNISTDataset, error) {
	imageFile, labelFile := testImageFile, testLabelFile
	if train {
		imageFile, labelFile = trainImageFile, trainLabelFile
	}

	rawImages, err := readIDXImages(filepath.Join(dataDir, imageFile))
	if err != nil {
		return nil, fmt.Errorf("failed to load images: %w", err)
	}
	rawLabels, err := readIDXLabels(filepath.Join(dataDir, labelFile))
	if err != nil {
		return nil, fmt.Errorf("failed to load labels: %w", err)
	}
	if len(rawImages) != len(rawLabels) {
		return nil, fmt.Errorf("image count (%d) != label count (%d)", len(rawImages), len(rawLabels))
	}

	images := make([][]float32, len(rawImages))
	labels := make([]int32, len(rawLabels))
	for i := range rawImages {
		images[i] = make([]float32, imagePixels)
		for j, px := range rawImages[i] {
			images[i][j] = float32(px) / 255.0
		}
		labels[i] = int32(rawLabels[i])
	}
	return &MNISTDataset{Images: images, Labels: labels}, nil
}

// SyntheticMNIST generates a small synthetic dataset with one distinct
// bright-band pattern per digit, repeated until numSamples is reached.
// Useful for exercising the pipeline when the real files are absent.
func SyntheticMNIST(numSamples int) *MNISTDataset {
	images := make([][]float32, numSamples)
	labels := make([]int32, numSamples)
	for i := 0; i < numSamples; i++ {
		digit := i % 10
		img := make([]float32, imagePixels)
		startRow := digit * 2
		for row := startRow; row < startRow+8 && row < 28; row++ {
			for col := 5; col < 23; col++ {
				img[row*28+col] = 0.8
			}
		}
		images[i] = img
		labels[i] = int32(digit)
	}
	return &MNISTDataset{Images: images, Labels: labels}
}

// NumSamples returns the number of samples in the dataset.
func (d *MNISTDataset) NumSamples() int { return len(d.Images) }

// Batches splits the dataset into sequential mini-batches. The last batch
// may be smaller when the sample count does not divide evenly.
func (d *MNISTDataset) Batches(batchSize int, backend tensor.Backend) ([]MNISTBatch, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", batchSize)
	}

	numSamples := d.NumSamples()
	batches := make([]MNISTBatch, 0, (numSamples+batchSize-1)/batchSize)
	for start := 0; start < numSamples; start += batchSize {
		end := start + batchSize
		if end > numSamples {
			end = numSamples
		}
		size := end - start

		images := tensor.Zeros(tensor.Shape{size, imagePixels}, backend)
		imageData := images.Data()
		labels := make([]int32, size)
		for i := start; i < end; i++ {
			copy(imageData[(i-start)*imagePixels:(i-start+1)*imagePixels], d.Images[i])
			labels[i-start] = d.Labels[i]
		}

		labelTensor, err := tensor.FromInt32Slice(labels, tensor.Shape{size}, backend)
		if err != nil {
			return nil, fmt.Errorf("failed to build label batch: %w", err)
		}
		batches = append(batches, MNISTBatch{Images: images, Labels: labelTensor})
	}
	return batches, nil
}

// readIDXImages reads an IDX image file: uint32 magic 2051, image count,
// rows, cols, then raw pixel bytes.
func readIDXImages(filename string) ([][]byte, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var magic uint32
	if err := binary.Read(file, binary.BigEndian, &magic); err != nil {
		return nil, fmt.Errorf("failed to read magic: %w", err)
	}
	if magic != imagesMagic {
		return nil, fmt.Errorf("invalid magic number: got %d, want %d", magic, imagesMagic)
	}

	var numImages, numRows, numCols uint32
	if err := binary.Read(file, binary.BigEndian, &numImages); err != nil {
		return nil, err
	}
	if err := binary.Read(file, binary.BigEndian, &numRows); err != nil {
		return nil, err
	}
	if err := binary.Read(file, binary.BigEndian, &numCols); err != nil {
		return nil, err
	}

	imageSize := int(numRows * numCols)
	images := make([][]byte, numImages)
	for i := range images {
		images[i] = make([]byte, imageSize)
		if _, err := io.ReadFull(file, images[i]); err != nil {
			return nil, fmt.Errorf("failed to read image %d: %w", i, err)
		}
	}
	return images, nil
}

// readIDXLabels reads an IDX label file: uint32 magic 2049, label count,
// then raw label bytes.
func readIDXLabels(filename string) ([]byte, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var magic uint32
	if err := binary.Read(file, binary.BigEndian, &magic); err != nil {
		return nil, fmt.Errorf("failed to read magic: %w", err)
	}
	if magic != labelsMagic {
		return nil, fmt.Errorf("invalid magic number: got %d, want %d", magic, labelsMagic)
	}

	var numLabels uint32
	if err := binary.Read(file, binary.BigEndian, &numLabels); err != nil {
		return nil, err
	}

	labels := make([]byte, numLabels)
	if _, err := io.ReadFull(file, labels); err != nil {
		return nil, fmt.Errorf("failed to read labels: %w", err)
	}
	return labels, nil
}
