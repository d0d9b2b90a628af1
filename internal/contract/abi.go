package contract

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

//go:embed abi/survive.json
var surviveABIJSON string

var (
	parsedABI    abi.ABI
	parsedABIErr error
	parseABIOnce sync.Once
)

// ABI returns the parsed contract ABI. It is parsed once per process.
func ABI() (abi.ABI, error) {
	parseABIOnce.Do(func() {
		parsedABI, parsedABIErr = abi.JSON(strings.NewReader(surviveABIJSON))
		if parsedABIErr != nil {
			parsedABIErr = fmt.Errorf("parse contract abi: %w", parsedABIErr)
		}
	})
	return parsedABI, parsedABIErr
}
