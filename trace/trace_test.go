package trace_test

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/bpsim/trace"
)

var _ = Describe("Reader", func() {
	It("should decode branches in order", func() {
		input := "0x40a2c8 1\n40a2d0 0\n0X10 1\n"
		r := trace.NewReader(strings.NewReader(input))

		b, err := r.Next()
		Expect(err).NotTo(HaveOccurred())
		Expect(b).To(Equal(trace.Branch{PC: 0x40a2c8, Taken: true}))

		b, err = r.Next()
		Expect(err).NotTo(HaveOccurred())
		Expect(b).To(Equal(trace.Branch{PC: 0x40a2d0, Taken: false}))

		b, err = r.Next()
		Expect(err).NotTo(HaveOccurred())
		Expect(b).To(Equal(trace.Branch{PC: 0x10, Taken: true}))

		_, err = r.Next()
		Expect(err).To(Equal(io.EOF))
	})

	It("should skip blank and comment lines", func() {
		input := "# generated\n\n  0x4 1  \n"
		branches, err := trace.ReadAll(strings.NewReader(input))
		Expect(err).NotTo(HaveOccurred())
		Expect(branches).To(Equal([]trace.Branch{{PC: 0x4, Taken: true}}))
	})

	DescribeTable("should report malformed lines",
		func(input string, line int) {
			r := trace.NewReader(strings.NewReader(input))

			var err error
			for err == nil {
				_, err = r.Next()
			}

			var parseErr *trace.ParseError
			Expect(errors.As(err, &parseErr)).To(BeTrue())
			Expect(parseErr.Line).To(Equal(line))
		},
		Entry("missing outcome", "0x10\n", 1),
		Entry("bad outcome", "0x10 1\n0x14 2\n", 2),
		Entry("bad address", "0xzz 1\n", 1),
		Entry("address wider than 32 bits", "0x100000000 0\n", 1),
		Entry("extra field", "\n0x10 1 7\n", 2),
	)

	It("should return an empty slice for an empty trace", func() {
		branches, err := trace.ReadAll(strings.NewReader(""))
		Expect(err).NotTo(HaveOccurred())
		Expect(branches).To(BeEmpty())
	})
})

var _ = Describe("Writer", func() {
	It("should write branches the reader accepts", func() {
		buf := &bytes.Buffer{}
		w := trace.NewWriter(buf)
		Expect(w.Write(trace.Branch{PC: 0xdeadbeef, Taken: true})).To(Succeed())
		Expect(w.Write(trace.Branch{PC: 0x4, Taken: false})).To(Succeed())
		Expect(w.Flush()).To(Succeed())

		Expect(buf.String()).To(Equal("0xdeadbeef 1\n0x00000004 0\n"))

		branches, err := trace.ReadAll(buf)
		Expect(err).NotTo(HaveOccurred())
		Expect(branches).To(HaveLen(2))
		Expect(branches[0].PC).To(Equal(uint32(0xdeadbeef)))
	})
})

var _ = Describe("Open", func() {
	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	It("should read plain text traces", func() {
		path := filepath.Join(dir, "short.txt")
		Expect(os.WriteFile(path, []byte("0x8 1\n0xc 0\n"), 0644)).To(Succeed())

		branches, err := trace.Load(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(branches).To(HaveLen(2))
	})

	It("should decompress gzip traces", func() {
		path := filepath.Join(dir, "short.txt.gz")
		f, err := os.Create(path)
		Expect(err).NotTo(HaveOccurred())
		zw := gzip.NewWriter(f)
		_, err = zw.Write([]byte("0x8 1\n0xc 0\n0x10 1\n"))
		Expect(err).NotTo(HaveOccurred())
		Expect(zw.Close()).To(Succeed())
		Expect(f.Close()).To(Succeed())

		branches, err := trace.Load(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(branches).To(Equal([]trace.Branch{
			{PC: 0x8, Taken: true},
			{PC: 0xc, Taken: false},
			{PC: 0x10, Taken: true},
		}))
	})

	It("should decompress bzip2 traces", func() {
		branches, err := trace.Load(filepath.Join("testdata", "loop.txt.bz2"))
		Expect(err).NotTo(HaveOccurred())
		Expect(branches).To(Equal([]trace.Branch{
			{PC: 0x00400010, Taken: true},
			{PC: 0x00400010, Taken: true},
			{PC: 0x00400024, Taken: false},
		}))
	})

	It("should read standard input for -", func() {
		path := filepath.Join(dir, "stdin.txt")
		Expect(os.WriteFile(path, []byte("0x20 0\n"), 0644)).To(Succeed())

		f, err := os.Open(path)
		Expect(err).NotTo(HaveOccurred())
		stdin := os.Stdin
		os.Stdin = f
		DeferCleanup(func() {
			os.Stdin = stdin
			_ = f.Close()
		})

		branches, err := trace.Load("-")
		Expect(err).NotTo(HaveOccurred())
		Expect(branches).To(Equal([]trace.Branch{{PC: 0x20, Taken: false}}))
	})

	It("should reject a corrupt gzip file", func() {
		path := filepath.Join(dir, "broken.gz")
		Expect(os.WriteFile(path, []byte("not gzip"), 0644)).To(Succeed())

		_, err := trace.Open(path)
		Expect(err).To(HaveOccurred())
	})

	It("should fail on a missing file", func() {
		_, err := trace.Open(filepath.Join(dir, "missing.txt"))
		Expect(err).To(HaveOccurred())
	})
})
