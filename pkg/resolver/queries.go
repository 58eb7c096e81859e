package resolver

import (
	"fmt"

	"github.com/teamingnet/refgraph/pkg/config"
)

// The staging table holds the resolved (npi, tier) pairs for one run. Every
// query below interpolates identifiers from the operator's config plus the
// run-scoped staging name; the only caller-supplied fragment is the
// selection predicate, which is trusted by contract and passed through
// verbatim.

const (
	tierCharCore = "C"
	tierCharLeaf = "L"
)

func dropStagingSQL(staging string) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s", staging)
}

func createStagingSQL(staging string) string {
	return fmt.Sprintf("CREATE TABLE %s (npi char(10), node_type char(1))", staging)
}

func stagingIndexSQL(staging string) string {
	return fmt.Sprintf("CREATE UNIQUE INDEX idx_%s ON %s (npi)", staging, staging)
}

// stageCoreSQL inserts the core tier: identifiers whose detail row matches
// the predicate when joined through either side of the referral relation.
// The relation is directed, so both join directions must be unioned — the
// predicate is only evaluable against detail columns.
func stageCoreSQL(staging string, c *config.Config, predicate string) string {
	fromSide := fmt.Sprintf(
		"SELECT DISTINCT d1.%s AS npi FROM %s r1 JOIN %s d1 ON r1.%s = d1.%s WHERE %s",
		c.IDColumn, c.ReferralTable, c.DetailTable, c.FromColumn, c.IDColumn, predicate)
	toSide := fmt.Sprintf(
		"SELECT DISTINCT d2.%s AS npi FROM %s r2 JOIN %s d2 ON r2.%s = d2.%s WHERE %s",
		c.IDColumn, c.ReferralTable, c.DetailTable, c.ToColumn, c.IDColumn, predicate)
	return fmt.Sprintf(
		"INSERT INTO %s (npi, node_type)\nSELECT t.npi, '%s' FROM (\n%s\nUNION\n%s\n) t",
		staging, tierCharCore, fromSide, toSide)
}

// stageLeavesSQL inserts the leaf tier: identifiers exactly one referral hop
// from any staged core identifier, in either direction, excluding anything
// already staged. The exclusion is what enforces tier exclusivity.
func stageLeavesSQL(staging string, c *config.Config) string {
	senders := fmt.Sprintf(
		"SELECT DISTINCT r1.%s AS npi FROM %s s1 JOIN %s r1 ON r1.%s = s1.npi",
		c.FromColumn, staging, c.ReferralTable, c.ToColumn)
	receivers := fmt.Sprintf(
		"SELECT DISTINCT r2.%s AS npi FROM %s s2 JOIN %s r2 ON r2.%s = s2.npi",
		c.ToColumn, staging, c.ReferralTable, c.FromColumn)
	return fmt.Sprintf(
		"INSERT INTO %s (npi, node_type)\nSELECT t.npi, '%s' FROM (\n%s\nUNION\n%s\n) t WHERE t.npi NOT IN (SELECT npi FROM %s)",
		staging, tierCharLeaf, senders, receivers, staging)
}

// hydrateSQL joins staged identifiers of one tier back to the detail table
// to fetch full attribute rows.
func hydrateSQL(staging string, c *config.Config, tierChar string) string {
	return fmt.Sprintf(
		"SELECT d.* FROM %s s JOIN %s d ON d.%s = s.npi WHERE s.node_type = '%s'",
		staging, c.DetailTable, c.IDColumn, tierChar)
}

// coreEdgesSQL selects every referral row whose endpoints are both staged
// and at least one is core. Joining the staging table on both sides also
// yields the endpoint tiers, so edges can be classified without another
// lookup.
func coreEdgesSQL(staging string, c *config.Config) string {
	return fmt.Sprintf(
		"SELECT r.%s, r.%s, r.%s, sf.node_type, st.node_type\nFROM %s r\nJOIN %s sf ON sf.npi = r.%s\nJOIN %s st ON st.npi = r.%s\nWHERE sf.node_type = '%s' OR st.node_type = '%s'",
		c.FromColumn, c.ToColumn, c.WeightColumn,
		c.ReferralTable,
		staging, c.FromColumn,
		staging, c.ToColumn,
		tierCharCore, tierCharCore)
}

// leafEdgesSQL selects referral rows between two staged leaves. The
// both-leaves condition is symmetric, so a single query covers both
// directions of the relation.
func leafEdgesSQL(staging string, c *config.Config) string {
	return fmt.Sprintf(
		"SELECT r.%s, r.%s, r.%s, sf.node_type, st.node_type\nFROM %s r\nJOIN %s sf ON sf.npi = r.%s\nJOIN %s st ON st.npi = r.%s\nWHERE sf.node_type = '%s' AND st.node_type = '%s'",
		c.FromColumn, c.ToColumn, c.WeightColumn,
		c.ReferralTable,
		staging, c.FromColumn,
		staging, c.ToColumn,
		tierCharLeaf, tierCharLeaf)
}
