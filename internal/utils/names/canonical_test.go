package names

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Canonical", func() {
	Context("in named mode", func() {
		It("should trim and lower-case", func() {
			Expect(Canonical("  Chess Club ", ModeNamed)).To(Equal("chess club"))
		})

		It("should keep leading zeros", func() {
			Expect(Canonical("03", ModeNamed)).To(Equal("03"))
		})
	})

	Context("in numeric mode", func() {
		It("should drop leading zeros", func() {
			Expect(Canonical(" 03 ", ModeNumeric)).To(Equal("3"))
		})

		It("should fall back to named canonicalization", func() {
			Expect(Canonical("Room B", ModeNumeric)).To(Equal("room b"))
		})
	})

	It("should drop blank names", func() {
		Expect(CanonicalAll([]string{"A", " ", "", "b "}, ModeNamed)).To(Equal([]string{"a", "b"}))
	})

	It("should select the mode from a flag", func() {
		Expect(ModeFor(true)).To(Equal(ModeNumeric))
		Expect(ModeFor(false)).To(Equal(ModeNamed))
	})
})

var _ = Describe("Sort", func() {
	It("should sort named sessions lexically", func() {
		in := []string{"robotics", "art", "chess"}
		Sort(in, ModeNamed)
		Expect(in).To(Equal([]string{"art", "chess", "robotics"}))
	})

	It("should sort numeric sessions by value", func() {
		in := []string{"10", "9", "100", "1"}
		Sort(in, ModeNumeric)
		Expect(in).To(Equal([]string{"1", "9", "10", "100"}))
	})

	It("should place non-integer names after integers", func() {
		in := []string{"lab", "12", "2"}
		Sort(in, ModeNumeric)
		Expect(in).To(Equal([]string{"2", "12", "lab"}))
	})
})

var _ = Describe("ChoiceLabel", func() {
	DescribeTable("rendering ranks",
		func(rank int, want string) {
			Expect(ChoiceLabel(rank)).To(Equal(want))
		},
		Entry("first", 0, "1st choice"),
		Entry("second", 1, "2nd choice"),
		Entry("third", 2, "3rd choice"),
		Entry("fourth", 3, "4th choice"),
		Entry("eleventh", 10, "11th choice"),
		Entry("twenty-first", 20, "21st choice"),
		Entry("unassigned", -1, "unassigned"),
	)
})
