package predictor_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/bpsim/predictor"
)

var _ = Describe("Config", func() {
	Describe("Validate", func() {
		It("should accept static without widths", func() {
			config := predictor.Config{Strategy: predictor.StrategyStatic}
			Expect(config.Validate()).To(Succeed())
		})

		It("should accept the default config", func() {
			Expect(predictor.DefaultConfig().Validate()).To(Succeed())
		})

		It("should reject gshare without global history", func() {
			config := predictor.Config{Strategy: predictor.StrategyGshare}
			Expect(config.Validate()).To(MatchError(predictor.ErrInvalidConfig))
		})

		It("should reject tournament with zero local history bits", func() {
			config := predictor.Config{
				Strategy:          predictor.StrategyTournament,
				GlobalHistoryBits: 9,
				LocalHistoryBits:  0,
				PCIndexBits:       10,
			}
			err := config.Validate()
			Expect(err).To(MatchError(predictor.ErrInvalidConfig))
			Expect(err.Error()).To(ContainSubstring("lhistory_bits"))
		})

		It("should reject tournament with negative pc index bits", func() {
			config := predictor.Config{
				Strategy:          predictor.StrategyTournament,
				GlobalHistoryBits: 9,
				LocalHistoryBits:  10,
				PCIndexBits:       -1,
			}
			Expect(config.Validate()).To(MatchError(predictor.ErrInvalidConfig))
		})

		It("should reject tables that are too large", func() {
			config := predictor.Config{
				Strategy:          predictor.StrategyGshare,
				GlobalHistoryBits: predictor.MaxTableBits + 1,
			}
			Expect(config.Validate()).To(MatchError(predictor.ErrInvalidConfig))
		})

		It("should allow a 32-bit perceptron history", func() {
			config := predictor.Config{
				Strategy:          predictor.StrategyCustom,
				GlobalHistoryBits: 32,
			}
			Expect(config.Validate()).To(Succeed())

			config.GlobalHistoryBits = 33
			Expect(config.Validate()).To(MatchError(predictor.ErrInvalidConfig))
		})

		It("should reject unknown strategies", func() {
			config := predictor.Config{Strategy: predictor.Strategy(9)}
			Expect(config.Validate()).To(MatchError(predictor.ErrInvalidConfig))
		})
	})

	Describe("ParseSpec", func() {
		It("should parse static", func() {
			config, err := predictor.ParseSpec("static")
			Expect(err).NotTo(HaveOccurred())
			Expect(config.Strategy).To(Equal(predictor.StrategyStatic))
		})

		It("should parse gshare with leading dashes", func() {
			config, err := predictor.ParseSpec("--gshare:13")
			Expect(err).NotTo(HaveOccurred())
			Expect(config).To(Equal(predictor.Config{
				Strategy:          predictor.StrategyGshare,
				GlobalHistoryBits: 13,
			}))
		})

		It("should parse tournament widths in order", func() {
			config, err := predictor.ParseSpec("tournament:9:10:11")
			Expect(err).NotTo(HaveOccurred())
			Expect(config.GlobalHistoryBits).To(Equal(9))
			Expect(config.LocalHistoryBits).To(Equal(10))
			Expect(config.PCIndexBits).To(Equal(11))
		})

		It("should default the perceptron history", func() {
			config, err := predictor.ParseSpec("custom")
			Expect(err).NotTo(HaveOccurred())
			Expect(config.Strategy).To(Equal(predictor.StrategyCustom))
			Expect(config.GlobalHistoryBits).To(Equal(predictor.DefaultPerceptronHistoryBits))
		})

		It("should accept perceptron as an alias", func() {
			config, err := predictor.ParseSpec("Perceptron:20")
			Expect(err).NotTo(HaveOccurred())
			Expect(config.Strategy).To(Equal(predictor.StrategyCustom))
			Expect(config.GlobalHistoryBits).To(Equal(20))
		})

		DescribeTable("should reject malformed specs",
			func(spec string) {
				_, err := predictor.ParseSpec(spec)
				Expect(err).To(MatchError(predictor.ErrInvalidConfig))
			},
			Entry("unknown strategy", "bimodal:10"),
			Entry("missing width", "gshare"),
			Entry("non-numeric width", "gshare:x"),
			Entry("too few tournament widths", "tournament:9:10"),
			Entry("zero local history", "tournament:9:0:10"),
			Entry("static with width", "static:4"),
		)

		It("should round trip through String", func() {
			for _, spec := range []string{"static", "gshare:13", "tournament:9:10:10", "custom:15"} {
				config, err := predictor.ParseSpec(spec)
				Expect(err).NotTo(HaveOccurred())
				Expect(config.String()).To(Equal(spec))
			}
		})
	})

	Describe("Strategy", func() {
		It("should print the strategy names", func() {
			Expect(predictor.StrategyStatic.String()).To(Equal("Static"))
			Expect(predictor.StrategyGshare.String()).To(Equal("Gshare"))
			Expect(predictor.StrategyTournament.String()).To(Equal("Tournament"))
			Expect(predictor.StrategyCustom.String()).To(Equal("Custom"))
		})
	})

	Describe("Load and Save", func() {
		var dir string

		BeforeEach(func() {
			dir = GinkgoT().TempDir()
		})

		It("should round trip through a JSON file", func() {
			path := filepath.Join(dir, "bp.json")
			config := predictor.Config{
				Strategy:          predictor.StrategyTournament,
				GlobalHistoryBits: 9,
				LocalHistoryBits:  10,
				PCIndexBits:       10,
			}

			Expect(config.SaveConfig(path)).To(Succeed())

			loaded, err := predictor.LoadConfig(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(Equal(config))
		})

		It("should keep defaults for missing fields", func() {
			path := filepath.Join(dir, "partial.json")
			Expect(os.WriteFile(path, []byte(`{"strategy": "gshare"}`), 0644)).To(Succeed())

			loaded, err := predictor.LoadConfig(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.Strategy).To(Equal(predictor.StrategyGshare))
			Expect(loaded.GlobalHistoryBits).To(Equal(predictor.DefaultConfig().GlobalHistoryBits))
		})

		It("should fail on unknown strategy names", func() {
			path := filepath.Join(dir, "bad.json")
			Expect(os.WriteFile(path, []byte(`{"strategy": "oracle"}`), 0644)).To(Succeed())

			_, err := predictor.LoadConfig(path)
			Expect(err).To(MatchError(predictor.ErrInvalidConfig))
		})

		It("should fail on a missing file", func() {
			_, err := predictor.LoadConfig(filepath.Join(dir, "missing.json"))
			Expect(err).To(HaveOccurred())
		})
	})
})
