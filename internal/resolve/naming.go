package resolve

import "github.com/leapstack-labs/efscan/pkg/model"

// namingRule is one row of the foreign-key naming convention: a predicate
// deciding whether the rule applies to an (owner, dependant) pair, and the
// field name the convention then expects on the dependant.
type namingRule struct {
	name    string
	applies func(owner, dependant *model.TableObject) bool
	fkName  func(owner *model.TableObject) string
}

// fkNamingRules is the convention table, tried in order; the first matching
// rule decides the expected foreign-key name. The self-referential rule
// must sit above the general rule, which matches every pair.
var fkNamingRules = []namingRule{
	{
		name: "self-referential",
		applies: func(owner, dependant *model.TableObject) bool {
			return owner == dependant
		},
		fkName: func(owner *model.TableObject) string {
			return "parent_" + owner.ClassName + "_id"
		},
	},
	{
		name: "general",
		applies: func(owner, dependant *model.TableObject) bool {
			return true
		},
		fkName: func(owner *model.TableObject) string {
			return owner.ClassName + "_id"
		},
	},
}

// ExpectedFK returns the foreign-key field name the naming convention
// expects on dependant for a collection owned by owner.
func ExpectedFK(owner, dependant *model.TableObject) string {
	for _, r := range fkNamingRules {
		if r.applies(owner, dependant) {
			return r.fkName(owner)
		}
	}
	// Not reached: the general rule matches every pair.
	return owner.ClassName + "_id"
}
