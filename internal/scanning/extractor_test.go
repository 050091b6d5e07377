package scanning

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type mockOCR struct {
	text     string
	err      error
	received [][]byte
	closed   bool
}

func (m *mockOCR) Recognize(pngData []byte) (string, error) {
	m.received = append(m.received, pngData)
	if m.err != nil {
		return "", m.err
	}
	return m.text, nil
}

func (m *mockOCR) Close() error {
	m.closed = true
	return nil
}

type mockPDF struct {
	text string
	err  error
}

func (m *mockPDF) Text(pdfData []byte) (string, error) {
	return m.text, m.err
}

func testImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	return img
}

func testPNG() []byte {
	var buf bytes.Buffer
	Expect(png.Encode(&buf, testImage())).To(Succeed())
	return buf.Bytes()
}

func testJPEG() []byte {
	var buf bytes.Buffer
	Expect(jpeg.Encode(&buf, testImage(), nil)).To(Succeed())
	return buf.Bytes()
}

var _ = Describe("Extractor", func() {
	var (
		pdfText     *mockPDF
		ocr         *mockOCR
		extractor   *Extractor
		data        []byte
		contentType string
		text        string
		err         error
	)

	BeforeEach(func() {
		pdfText = &mockPDF{text: "Valor R$ 50,00"}
		ocr = &mockOCR{text: "Valor R$ 12,34"}
		extractor = NewExtractor(pdfText, ocr)
		extractor.rasterizer = func([]byte) ([]byte, error) { return []byte("rendered"), nil }
	})

	JustBeforeEach(func() {
		text, err = extractor.ExtractText(data, contentType)
	})

	When("the upload is a PDF with a text layer", func() {
		BeforeEach(func() {
			data = []byte("%PDF-1.4")
			contentType = "application/pdf"
		})

		It("returns the text layer", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(Equal("Valor R$ 50,00"))
		})

		It("does not call OCR", func() {
			Expect(ocr.received).To(BeEmpty())
		})
	})

	When("the upload is a scanned PDF", func() {
		BeforeEach(func() {
			data = []byte("%PDF-1.4")
			contentType = "application/pdf"
			pdfText.text = " \n "
		})

		It("OCRs the rendered first page", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(Equal("Valor R$ 12,34"))
			Expect(ocr.received).To(Equal([][]byte{[]byte("rendered")}))
		})
	})

	When("the PDF cannot be read", func() {
		BeforeEach(func() {
			data = []byte("garbage")
			contentType = "application/pdf"
			pdfText.err = errors.New("bad xref")
		})

		It("returns the error", func() {
			Expect(err).To(MatchError(ContainSubstring("bad xref")))
		})
	})

	When("the upload is a PNG image", func() {
		BeforeEach(func() {
			data = testPNG()
			contentType = "image/png"
		})

		It("passes the PNG to OCR untouched", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(Equal("Valor R$ 12,34"))
			Expect(ocr.received).To(HaveLen(1))
			Expect(ocr.received[0]).To(Equal(data))
		})
	})

	When("the upload is a JPEG image", func() {
		BeforeEach(func() {
			data = testJPEG()
			contentType = "image/jpeg"
		})

		It("converts it to PNG before OCR", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(ocr.received).To(HaveLen(1))
			_, format, decodeErr := image.Decode(bytes.NewReader(ocr.received[0]))
			Expect(decodeErr).NotTo(HaveOccurred())
			Expect(format).To(Equal("png"))
		})
	})

	When("enhancement is enabled", func() {
		BeforeEach(func() {
			extractor = NewExtractor(pdfText, ocr, WithEnhancement(true))
			data = testPNG()
			contentType = "image/png"
		})

		It("sends a grayscale PNG to OCR", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(ocr.received).To(HaveLen(1))

			img, format, decodeErr := image.Decode(bytes.NewReader(ocr.received[0]))
			Expect(decodeErr).NotTo(HaveOccurred())
			Expect(format).To(Equal("png"))
			Expect(img.Bounds().Dx()).To(Equal(4))

			r, g, b, _ := img.At(1, 1).RGBA()
			Expect(r).To(Equal(g))
			Expect(g).To(Equal(b))
		})
	})

	When("OCR fails", func() {
		BeforeEach(func() {
			data = testPNG()
			contentType = "image/png"
			ocr.err = errors.New("quota exceeded")
		})

		It("returns the error", func() {
			Expect(err).To(MatchError(ContainSubstring("quota exceeded")))
		})
	})

	When("the upload is neither PDF nor image", func() {
		BeforeEach(func() {
			data = []byte("hello")
			contentType = "text/plain"
		})

		It("returns ErrUnsupportedContentType", func() {
			Expect(errors.Is(err, ErrUnsupportedContentType)).To(BeTrue())
		})
	})

	When("no OCR is configured", func() {
		BeforeEach(func() {
			extractor = NewExtractor(pdfText, nil)
			data = testPNG()
			contentType = "image/png"
		})

		It("cannot read images", func() {
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Close", func() {
		It("closes the OCR client", func() {
			Expect(extractor.Close()).To(Succeed())
			Expect(ocr.closed).To(BeTrue())
		})
	})
})

var _ = Describe("content types", func() {
	DescribeTable("IsSupported",
		func(contentType string, supported bool) {
			Expect(IsSupported(contentType)).To(Equal(supported))
		},
		Entry("pdf", "application/pdf", true),
		Entry("pdf with params", "Application/PDF; charset=binary", true),
		Entry("jpeg", "image/jpeg", true),
		Entry("heic", "image/heic", true),
		Entry("zip", "application/zip", false),
		Entry("empty", "", false),
	)
})

var _ = Describe("isHEICFormat", func() {
	It("detects the ftyp heic brand", func() {
		data := append([]byte{0, 0, 0, 24}, []byte("ftypheic0000")...)
		Expect(isHEICFormat(data)).To(BeTrue())
	})

	It("rejects short data", func() {
		Expect(isHEICFormat([]byte("ftyp"))).To(BeFalse())
	})

	It("rejects PNG data", func() {
		Expect(isHEICFormat(testPNG())).To(BeFalse())
	})
})
