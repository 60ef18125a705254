package query_test

import (
	"encoding/json"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/visualsearch/pkg/dhash"
	"github.com/papercomputeco/visualsearch/pkg/query"
)

var _ = Describe("Build", func() {
	fp := dhash.Fingerprint(0xa5a5_0000_ffff_0001)

	It("sets the threshold and one clause per bit", func() {
		q := query.Build(fp, 10)
		Expect(q.Query.Bool.MinimumShouldMatch).To(Equal(10))
		Expect(q.Query.Bool.Should).To(HaveLen(64))

		for i, clause := range q.Query.Bool.Should {
			match := clause.ConstantScore.Query.Match
			Expect(match).To(HaveLen(1))
			Expect(match).To(HaveKeyWithValue(fmt.Sprintf("dHash.dh_%d", i), fp.Bit(i)))
		}
	})

	It("serializes to the bool/should form", func() {
		data, err := query.Build(fp, 10).Marshal()
		Expect(err).NotTo(HaveOccurred())

		var raw struct {
			Query struct {
				Bool struct {
					MinimumShouldMatch int `json:"minimum_should_match"`
					Should             []struct {
						ConstantScore struct {
							Query struct {
								Match map[string]bool `json:"match"`
							} `json:"query"`
						} `json:"constant_score"`
					} `json:"should"`
				} `json:"bool"`
			} `json:"query"`
		}
		Expect(json.Unmarshal(data, &raw)).To(Succeed())
		Expect(raw.Query.Bool.MinimumShouldMatch).To(Equal(10))
		Expect(raw.Query.Bool.Should).To(HaveLen(64))

		seen := map[string]bool{}
		for _, s := range raw.Query.Bool.Should {
			for field, v := range s.ConstantScore.Query.Match {
				seen[field] = v
			}
		}
		Expect(seen).To(HaveLen(64))
		Expect(seen).To(HaveKeyWithValue("dHash.dh_0", true))
		Expect(seen).To(HaveKeyWithValue("dHash.dh_1", false))
		Expect(seen).To(HaveKeyWithValue("dHash.dh_63", true))
	})

	It("passes any threshold through", func() {
		Expect(query.Build(fp, 0).Query.Bool.MinimumShouldMatch).To(Equal(0))
		Expect(query.Build(fp, 64).Query.Bool.MinimumShouldMatch).To(Equal(64))
	})

	It("names fields under dHash", func() {
		Expect(query.Field(7)).To(Equal("dHash.dh_7"))
	})
})
