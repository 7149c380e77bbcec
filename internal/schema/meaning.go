package schema

import "strings"

var abbreviations = map[string]string{
	// nouns
	"nm": "name", "dt": "date", "no": "number", "cd": "code",
	"desc": "description", "amt": "amount", "cnt": "count", "qty": "quantity",
	"addr": "address", "tel": "phone", "hp": "phone", "ph": "phone", "mobile": "phone",
	"biz": "business", "pwd": "password", "passwd": "password", "pw": "password",
	"img": "image", "ip": "ip", "zip": "zipcode", "post": "zipcode",
	"msg": "message", "txt": "text", "tit": "title", "subj": "subject",
	"doc": "document", "usr": "user", "emp": "employee", "mail": "email",
	"dept": "department", "grp": "group", "cat": "category",
	"loc": "location", "lat": "latitude", "lng": "longitude", "lon": "longitude",
	"st": "street", "prov": "province", "dist": "district", "ctry": "country",
	"bal": "balance", "rslt": "result", "avg": "average",

	// verbs and states
	"reg": "registered", "mod": "modified", "del": "deleted", "cre": "created",
	"upd": "updated", "yn": "yesno", "stat": "status", "sts": "status",
	"typ": "type", "val": "value", "ord": "order", "seq": "sequence", "idx": "index",
	"is": "yesno", "use": "yesno", "flg": "flag",
}

// commentHints are checked in order; the first meaning with a keyword in the
// column comment wins.
var commentHints = []struct {
	meaning  string
	keywords []string
}{
	{"phone", []string{"phone", "mobile", "tel"}},
	{"email", []string{"email", "e-mail", "mail"}},
	{"address", []string{"address"}},
	{"zipcode", []string{"zip", "postal"}},
	{"name", []string{"name"}},
	{"password", []string{"password", "passwd"}},
	{"title", []string{"title", "subject"}},
	{"description", []string{"description", "desc", "content"}},
	{"date", []string{"date", "time"}},
	{"price", []string{"price", "cost", "amount"}},
	{"count", []string{"count", "qty", "quantity"}},
	{"yesno", []string{"flag", "yes/no", "y/n"}},
	{"country", []string{"country"}},
	{"city", []string{"city"}},
	{"url", []string{"url", "link", "homepage"}},
	{"ip", []string{"ip address"}},
}

// AnalyzeMeaning guesses what a column holds, first from its comment, then
// by expanding the abbreviations in its name ("reg_dt" becomes
// "registered date").
func AnalyzeMeaning(colName, comment string) string {
	c := strings.ToLower(comment)
	if c != "" {
		for _, h := range commentHints {
			for _, kw := range h.keywords {
				if strings.Contains(c, kw) {
					return h.meaning
				}
			}
		}
	}

	parts := strings.Split(strings.ToLower(colName), "_")
	for i, part := range parts {
		if full, ok := abbreviations[part]; ok {
			parts[i] = full
		}
	}
	return strings.Join(parts, " ")
}
