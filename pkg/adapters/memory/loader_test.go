package memory_test

import (
	"testing"

	"github.com/aretw0/vfxbridge/pkg/adapters/memory"
	contract "github.com/aretw0/vfxbridge/pkg/ports/tests"
)

func TestInMemoryLoader_Contract(t *testing.T) {
	data := map[string]string{
		"sparks": `{"ops":[]}`,
		"trail":  `{"ops":[{"action":"add_node"}]}`,
	}

	bytesData := make(map[string][]byte)
	for k, v := range data {
		bytesData[k] = []byte(v)
	}

	contract.RecipeLoaderContractTest(t, memory.NewLoader(data), bytesData)
}
