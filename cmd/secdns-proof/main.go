package main

import (
	"encoding/json"
	"flag"
	"os"
	"path/filepath"

	"github.com/zhouchenh/secDNS/internal/common"
	"github.com/zhouchenh/secDNS/internal/core"
)

var (
	requestFilePath = flag.String("request", "", "Specify a request document (defaults to stdin)")
	version         = flag.Bool("version", false, "Print version information and exit")
	test            = flag.Bool("test", false, "Parse the request document and exit without collecting or evaluating")
)

func printVersion() {
	for _, s := range core.VersionStatement() {
		common.Output(s)
	}
}

func open(filePath string) (*os.File, error) {
	switch filePath {
	case "":
		if env := os.Getenv(core.EnvKey("request", "file", "path")); env != "" {
			if file, err := os.Open(env); err == nil {
				return file, err
			}
		}
		return os.Stdin, nil
	case "-":
		return os.Stdin, nil
	default:
		return core.OpenFile(filePath)
	}
}

func main() {
	flag.Parse()
	if *version {
		printVersion()
		return
	}

	if executablePath, err := os.Executable(); err == nil {
		envConfigDirPath := core.EnvKey("config", "dir", "path")
		if _, isSet := os.LookupEnv(envConfigDirPath); !isSet {
			_ = os.Setenv(envConfigDirPath, filepath.Dir(executablePath))
		}
	}

	file, err := open(*requestFilePath)
	if err != nil {
		common.ErrOutput(common.Concatenate("request: Failed to open file: ", err))
		os.Exit(1)
	}
	defer func() {
		if file != os.Stdin {
			_ = file.Close()
		}
	}()

	var req request
	if err := json.NewDecoder(file).Decode(&req); err != nil {
		common.ErrOutput(common.Concatenate("request: Failed to parse request document: ", err))
		os.Exit(1)
	}

	if *test {
		common.Output("request: Syntax is OK")
		return
	}

	result, err := run(&req)
	if err != nil {
		common.ErrOutput(common.Concatenate("run: ", err))
		os.Exit(1)
	}

	encoded, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		common.ErrOutput(common.Concatenate("run: Failed to serialize result: ", err))
		os.Exit(1)
	}
	common.Output(string(encoded))
}
