package utility

import "strconv"

// P2Int64 parse chuỗi thành int64, trả về 0 nếu không parse được
func P2Int64(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
