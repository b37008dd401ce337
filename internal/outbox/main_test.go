package outbox

import (
	"fmt"
	"os"
	"path"
	"testing"
)

func TestMain(m *testing.M) {
	dataDir, err := os.MkdirTemp("", "outbox-test")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	os.Setenv("DATA_DIR", dataDir)

	code := m.Run()

	files, err := os.ReadDir(dataDir)
	if err != nil {
		fmt.Println(err)
	}
	for _, file := range files {
		os.Remove(path.Join(dataDir, file.Name()))
	}
	os.RemoveAll(dataDir)

	os.Exit(code)
}
