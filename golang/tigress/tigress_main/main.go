package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"io"
	"os"
	"os/signal"
	"path"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"github.com/tarstars/tigress_stability/golang/tigress/tgl"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

//loadConfig reads a JSON or YAML config, chosen by the file extension, and validates it.
func loadConfig(srcConfig string, out interface{}) error {
	file, err := os.Open(srcConfig)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	switch strings.ToLower(filepath.Ext(srcConfig)) {
	case ".yaml", ".yml":
		err = yaml.NewDecoder(file).Decode(out)
	default:
		decoder := json.NewDecoder(file)
		decoder.DisallowUnknownFields()
		err = decoder.Decode(out)
	}
	if errors.Is(err, io.EOF) {
		return errors.New("empty config")
	}
	if err != nil {
		return err
	}
	return validate.Struct(out)
}

func decodeConfig(srcConfig string, out interface{}) {
	if err := loadConfig(srcConfig, out); err != nil {
		logrus.WithError(err).Fatalf("invalid config %s", srcConfig)
	}
}

type InferConfig struct {
	FileNameExpression string  `json:"filename_expression" yaml:"filename_expression" validate:"required"`
	FileNameGenes      string  `json:"filename_genes" yaml:"filename_genes"` // only for npy expression files
	FileNameTFs        string  `json:"filename_tfs" yaml:"filename_tfs" validate:"required"`
	FileNameTargets    string  `json:"filename_targets" yaml:"filename_targets"` // all genes when empty
	FileNameScores     string  `json:"filename_scores" yaml:"filename_scores" validate:"required"`
	NpyDirectory       string  `json:"npy_directory" yaml:"npy_directory"`
	NpyPrefix          string  `json:"npy_prefix" yaml:"npy_prefix"`
	Steps              int     `json:"n_steps" yaml:"n_steps" validate:"gte=0"`
	Alpha              float64 `json:"alpha" yaml:"alpha" validate:"gte=0,lt=1"`
	NSplit             int     `json:"n_split" yaml:"n_split" validate:"gte=0"`
	Seed               int64   `json:"seed" yaml:"seed"`
	ThreadsNum         int     `json:"threads_num" yaml:"threads_num" validate:"gte=0"`
	Scoring            string  `json:"scoring" yaml:"scoring" validate:"omitempty,oneof=frequency original area"`
}

//params fills the unset numbers with the library defaults.
func (config InferConfig) params() tgl.Params {
	params := tgl.DefaultParams()
	if config.Steps != 0 {
		params.Steps = config.Steps
	}
	if config.Alpha != 0 {
		params.Alpha = config.Alpha
	}
	if config.NSplit != 0 {
		params.NSplit = config.NSplit
	}
	params.Seed = config.Seed
	params.Threads = config.ThreadsNum
	scoring, err := tgl.ParseScoring(config.Scoring)
	tgl.HandleError(err)
	params.Scoring = scoring
	return params
}

func readExpression(config InferConfig) *tgl.ExpressionMatrix {
	var (
		em  *tgl.ExpressionMatrix
		err error
	)
	if strings.EqualFold(filepath.Ext(config.FileNameExpression), ".npy") {
		em, err = tgl.ReadExpressionNpy(config.FileNameExpression, config.FileNameGenes)
	} else {
		em, err = tgl.ReadExpressionTSV(config.FileNameExpression)
	}
	tgl.HandleError(err)
	return em
}

func infer(srcConfig string) {
	var config InferConfig
	decodeConfig(srcConfig, &config)

	logrus.Printf("load expression <%s>", config.FileNameExpression)
	em := readExpression(config)

	tfs, err := tgl.ReadGeneList(config.FileNameTFs)
	tgl.HandleError(err)
	targets := em.Genes()
	if config.FileNameTargets != "" {
		targets, err = tgl.ReadGeneList(config.FileNameTargets)
		tgl.HandleError(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	scores, err := tgl.Infer(ctx, em, tfs, targets, config.params())
	if err != nil {
		logrus.WithError(err).Fatal("inference failed")
	}
	for _, failure := range scores.Failures() {
		logrus.WithField("target", failure.Target).Warn(failure.Error())
	}

	tgl.HandleError(scores.Save(config.FileNameScores))
	if config.NpyDirectory != "" {
		prefix := config.NpyPrefix
		if prefix == "" {
			prefix = "scores"
		}
		fileNames, err := scores.WriteNpy(config.NpyDirectory, prefix)
		tgl.HandleError(err)
		logrus.Printf("wrote %d step matrices to %s", len(fileNames), config.NpyDirectory)
	}
}

type RankConfig struct {
	FileNameScores  string `json:"filename_scores" yaml:"filename_scores" validate:"required"`
	FileNameRanking string `json:"filename_ranking" yaml:"filename_ranking" validate:"required"`
	Step            int    `json:"step" yaml:"step" validate:"gte=0"` // 1-indexed, last step when 0
	Limit           int    `json:"limit" yaml:"limit" validate:"gte=0"`
}

//stepIndex converts a 1-indexed step from a config into a tensor index; zero means the last step.
func stepIndex(scores *tgl.ScoreTensor, step int) int {
	if step == 0 || step > scores.Steps() {
		return scores.Steps() - 1
	}
	return step - 1
}

func rank(srcConfig string) {
	var config RankConfig
	decodeConfig(srcConfig, &config)

	scores, err := tgl.LoadScores(config.FileNameScores)
	tgl.HandleError(err)

	dst, err := os.Create(config.FileNameRanking)
	tgl.HandleError(err)
	defer func() { tgl.HandleError(dst.Close()) }()

	tgl.HandleError(scores.WriteRankingTSV(dst, stepIndex(scores, config.Step), config.Limit))
}

type GraphConfig struct {
	FileNameScores    string `json:"filename_scores" yaml:"filename_scores" validate:"required"`
	FigureType        string `json:"figure_type" yaml:"figure_type" validate:"required,oneof=png svg jpg dot"`
	PicturesDirectory string `json:"pictures_directory" yaml:"pictures_directory" validate:"required"`
	DumpPrefix        string `json:"dump_prefix" yaml:"dump_prefix" validate:"required"`
	Step              int    `json:"step" yaml:"step" validate:"gte=0"`
	TopEdges          int    `json:"top_edges" yaml:"top_edges" validate:"gte=0"`
}

func graph(srcConfig string) {
	var config GraphConfig
	decodeConfig(srcConfig, &config)

	scores, err := tgl.LoadScores(config.FileNameScores)
	tgl.HandleError(err)

	step := stepIndex(scores, config.Step)
	fileName := path.Join(config.PicturesDirectory, config.DumpPrefix+"."+config.FigureType)
	tgl.HandleError(scores.RenderNetwork(step, config.TopEdges, config.FigureType, fileName))
	logrus.Printf("network of step %d rendered to %s", step+1, fileName)
}

func main() {
	runMode := flag.String("mode", "infer", "you can select either 'infer', 'rank' or 'graph' modes")
	config := flag.String("config", "tigress_config.json", "a config file (json or yaml) for the run of the program")
	verbose := flag.Bool("verbose", false, "log the progress of every target")
	memprofile := flag.String("memprofile", "", "write memory profile to `file`")

	flag.Parse()

	if *verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	modes := map[string]func(string){
		"infer": infer,
		"rank":  rank,
		"graph": graph,
	}
	run, ok := modes[*runMode]
	if !ok {
		logrus.Fatalf("unknown mode %q", *runMode)
	}
	run(*config)

	if *memprofile != "" {
		f, err := os.Create(*memprofile)
		tgl.HandleError(err)
		defer func() { tgl.HandleError(f.Close()) }()
		runtime.GC()
		if err := pprof.WriteHeapProfile(f); err != nil {
			logrus.Fatal("could not write memory profile: ", err)
		}
	}
}
