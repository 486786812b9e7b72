package ids

import (
	"fmt"
	"strconv"
	"strings"
)

// CellID renders grid offsets as "i:j".
func CellID(i, j int) string {
	return fmt.Sprintf("%d:%d", i, j)
}

func ParseCellID(id string) (i, j int, ok bool) {
	parts := strings.Split(id, ":")
	if len(parts) != 2 {
		return 0, 0, false
	}
	i, err1 := strconv.Atoi(parts[0])
	j, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return i, j, true
}

// CoinID renders a coin as "i:j#serial" where i:j is its origin cell.
func CoinID(i, j, serial int) string {
	return fmt.Sprintf("%s#%d", CellID(i, j), serial)
}

func ParseCoinID(id string) (i, j, serial int, ok bool) {
	k := strings.LastIndexByte(id, '#')
	if k < 0 || k+1 >= len(id) {
		return 0, 0, 0, false
	}
	i, j, ok = ParseCellID(id[:k])
	if !ok {
		return 0, 0, 0, false
	}
	n, err := strconv.ParseUint(id[k+1:], 10, 31)
	if err != nil {
		return 0, 0, 0, false
	}
	return i, j, int(n), true
}
