package cache

import (
	"fmt"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
)

const (
	// category:{id} -> category json
	KeyCategory = "category:%d"

	// product:{id} -> product json
	KeyProduct = "product:%d"

	// session:{user_id} -> user json
	KeySession = "session:%d"

	// reset_grant:{token id} -> user id, removed on first use
	KeyResetGrant = "reset_grant:%s"

	// Every cached product listing lives under this prefix.
	PrefixProductLists = "products:"

	// products:all:{page}:{limit}
	KeyProductsAll = PrefixProductLists + "all:%d:%d"
	// products:category:{category_id}:{page}:{limit}
	KeyProductsByCategory = PrefixProductLists + "category:%d:%d:%d"
	// products:seller:{seller_id}:{page}:{limit}
	KeyProductsBySeller = PrefixProductLists + "seller:%d:%d:%d"
	// products:search:{xxhash of filter}:{page}:{limit}
	KeyProductsSearch = PrefixProductLists + "search:%016x:%d:%d"
)

var (
	TTLCategory    = 24 * time.Hour
	TTLProduct     = 24 * time.Hour
	TTLProductList = time.Hour
)

func Key(format string, args ...interface{}) string {
	return fmt.Sprintf(format, args...)
}

// SearchKey folds an arbitrary set of filter parts into one stable key.
func SearchKey(page, limit int, parts ...string) string {
	h := xxhash.New()
	_, _ = h.WriteString(strings.Join(parts, "\x1f"))
	return Key(KeyProductsSearch, h.Sum64(), page, limit)
}
